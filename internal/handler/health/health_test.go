package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/heritagequest/internal/handler/health"
)

type mockChecker struct{ err error }

func (m mockChecker) Check(_ context.Context) error { return m.err }

func TestHandler(t *testing.T) {
	tests := []struct {
		name        string
		sqliteErr   error
		redisErr    error
		wantStatus  int
		wantOverall string
		wantChecks  map[string]string
	}{
		{
			name:        "all healthy",
			wantStatus:  http.StatusOK,
			wantOverall: health.StatusOK,
			wantChecks:  map[string]string{"sqlite": "ok", "redis": "ok"},
		},
		{
			name:        "sqlite down",
			sqliteErr:   errors.New("locked"),
			wantStatus:  http.StatusServiceUnavailable,
			wantOverall: health.StatusError,
			wantChecks:  map[string]string{"sqlite": "error", "redis": "ok"},
		},
		{
			name:        "redis down",
			redisErr:    errors.New("refused"),
			wantStatus:  http.StatusOK,
			wantOverall: health.StatusDegraded,
			wantChecks:  map[string]string{"sqlite": "ok", "redis": "error"},
		},
		{
			name:        "both down",
			sqliteErr:   errors.New("db"),
			redisErr:    errors.New("cache"),
			wantStatus:  http.StatusServiceUnavailable,
			wantOverall: health.StatusError,
			wantChecks:  map[string]string{"sqlite": "error", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.Default(),
				health.Check{Name: "sqlite", Checker: mockChecker{err: tt.sqliteErr}},
				health.Check{Name: "redis", Checker: mockChecker{err: tt.redisErr}, Optional: true},
			)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body health.Report
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Status != tt.wantOverall {
				t.Errorf("overall status = %q, want %q", body.Status, tt.wantOverall)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestCheckerFunc(t *testing.T) {
	called := false
	h := health.NewHandler(slog.Default(), health.Check{
		Name: "fn",
		Checker: health.CheckerFunc(func(ctx context.Context) error {
			called = true
			if _, ok := ctx.Deadline(); !ok {
				t.Error("check context has no deadline")
			}
			return nil
		}),
	})

	report := h.Run(context.Background())
	if !called {
		t.Fatal("checker was not called")
	}
	if report.Status != health.StatusOK {
		t.Errorf("status = %q, want ok", report.Status)
	}
}
