package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playperu/heritagequest/internal/store"
)

// SeedDemo creates the admin account and the demo sites.
// Idempotent: existing admins keep their password and sites are only
// seeded into an empty database.
func SeedDemo(ctx context.Context, logger *slog.Logger, st *store.SQLiteStore, adminEmail, adminPassword string) error {
	if err := st.EnsureAdmin(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("ensuring admin: %w", err)
	}
	if err := st.SeedDemo(ctx, logger); err != nil {
		return fmt.Errorf("seeding demo sites: %w", err)
	}
	return nil
}
