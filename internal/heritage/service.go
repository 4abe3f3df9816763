package heritage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides identifier generation.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ResolveSite maps a scanned QR payload or a raw site id to a site. An
// unknown token is reported through found=false.
func (s *Service) ResolveSite(ctx context.Context, token string) (ResolvedSite, bool, error) {
	var (
		res   ResolvedSite
		found bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		res, found, err = resolveSite(ctx, tx, token)
		return err
	})
	return res, found, err
}

func resolveSite(ctx context.Context, tx Tx, token string) (ResolvedSite, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ResolvedSite{}, false, nil
	}

	site, ok, err := tx.SiteByQRCode(ctx, token)
	if err != nil {
		return ResolvedSite{}, false, err
	}
	if !ok {
		site, ok, err = tx.SiteByID(ctx, token)
		if err != nil {
			return ResolvedSite{}, false, err
		}
	}
	if !ok {
		return ResolvedSite{}, false, nil
	}

	n, err := tx.CountBuildings(ctx, site.ID)
	if err != nil {
		return ResolvedSite{}, false, err
	}
	return ResolvedSite{Site: site, BuildingCount: n}, true, nil
}
