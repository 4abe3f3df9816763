package heritage_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/heritagequest/internal/database"
	"github.com/playperu/heritagequest/internal/heritage"
	"github.com/playperu/heritagequest/internal/migrations"
	"github.com/playperu/heritagequest/internal/store"
)

const (
	borobudurQR = "BOROBUDUR_QR_2024"
	borobudurID = "site-borobudur"
)

var borobudurBuildings = []string{
	"bld-borobudur-gate",
	"bld-borobudur-kamadhatu",
	"bld-borobudur-rupadhatu",
	"bld-borobudur-arupadhatu",
	"bld-borobudur-main-stupa",
}

// clock advances one second per reading so ordering by time is stable.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T) (*heritage.Service, *store.SQLiteStore) {
	t.Helper()
	return openService(t, ":memory:", 3)
}

// newFileService backs the service with a database file so concurrent
// transactions run on separate connections and contend for the write lock.
func newFileService(t *testing.T) (*heritage.Service, *store.SQLiteStore) {
	t.Helper()
	return openService(t, filepath.Join(t.TempDir(), "heritage.db"), 20)
}

func openService(t *testing.T, path string, retries uint) (*heritage.Service, *store.SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.Run(ctx, db)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(db, logger, retries)
	require.NoError(t, st.SeedDemo(ctx, logger))

	c := &clock{t: time.Date(2024, 8, 17, 9, 0, 0, 0, time.UTC)}
	n := 0
	var mu sync.Mutex
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return heritage.NewService(st, heritage.WithClock(c.Now), heritage.WithIDs(ids)), st
}

func TestResolveSite(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	byQR, ok, err := svc.ResolveSite(ctx, borobudurQR)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, borobudurID, byQR.ID)
	assert.Equal(t, 5, byQR.BuildingCount)

	byID, ok, err := svc.ResolveSite(ctx, "  "+borobudurID+"\n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byQR, byID)

	for _, token := range []string{"", "   ", "UNKNOWN_QR"} {
		_, ok, err := svc.ResolveSite(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok, "token %q", token)
	}
}
