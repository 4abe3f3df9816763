package migrations_test

import (
	"context"
	"testing"

	"github.com/playperu/heritagequest/internal/database"
	"github.com/playperu/heritagequest/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	// Verify all tables exist by querying sqlite_master.
	want := []string{
		"profiles", "sites", "buildings", "overview_pages", "trivia_questions",
		"badges", "trips", "building_visits", "game_sessions", "trivia_answers",
		"profile_badges", "admins", "admin_sessions",
	}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	n, err := migrations.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if n == 0 {
		t.Fatal("first run applied no migrations")
	}
	n, err = migrations.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
	if n != 0 {
		t.Fatalf("second run applied %d migrations, want 0", n)
	}
}

func TestOneActiveTripIndex(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	exec := func(q string, args ...any) error {
		_, err := db.Exec(q, args...)
		return err
	}
	if err := exec(`INSERT INTO sites (id, name, created_at) VALUES ('s1', 'Site', 'now')`); err != nil {
		t.Fatalf("insert site: %v", err)
	}
	insertTrip := `INSERT INTO trips (id, user_id, site_id, status, started_at) VALUES (?, 'u1', 's1', ?, 'now')`
	if err := exec(insertTrip, "t1", "active"); err != nil {
		t.Fatalf("first active trip: %v", err)
	}
	if err := exec(insertTrip, "t2", "active"); err == nil {
		t.Fatal("second active trip for same user and site should be rejected")
	}
	if err := exec(insertTrip, "t3", "completed"); err != nil {
		t.Fatalf("completed trip alongside active one: %v", err)
	}
}
