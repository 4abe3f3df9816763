// Package health serves the dependency health probe.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// Check is one named dependency. A failing optional check degrades the
// report but keeps the probe at 200.
type Check struct {
	Name     string
	Checker  Checker
	Optional bool
}

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

type Result struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Optional  bool   `json:"optional,omitempty"`
}

type Report struct {
	Status string            `json:"status"`
	Checks map[string]Result `json:"checks"`
}

type Handler struct {
	checks  []Check
	timeout time.Duration
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, checks ...Check) *Handler {
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return &Handler{checks: checks, timeout: 3 * time.Second, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

// Run executes every check concurrently and folds the results.
func (h *Handler) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	report := Report{Status: StatusOK, Checks: make(map[string]Result, len(h.checks))}
	var mu sync.Mutex

	var g errgroup.Group
	for _, c := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Checker.Check(ctx)
			res := Result{
				Status:    StatusOK,
				LatencyMs: time.Since(start).Milliseconds(),
				Optional:  c.Optional,
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Error("health check failed", "name", c.Name, "optional", c.Optional, "error", err)
				res.Status = StatusError
				switch {
				case !c.Optional:
					report.Status = StatusError
				case report.Status == StatusOK:
					report.Status = StatusDegraded
				}
			}
			report.Checks[c.Name] = res
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	report := h.Run(r.Context())

	status := http.StatusOK
	if report.Status == StatusError {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }
