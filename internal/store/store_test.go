package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/heritagequest/internal/database"
	"github.com/playperu/heritagequest/internal/heritage"
	"github.com/playperu/heritagequest/internal/migrations"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.Run(ctx, db)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(db, logger, 3)
	require.NoError(t, s.SeedDemo(ctx, logger))
	return s
}

func TestSeedDemoIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDemo(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))))

	sites, err := s.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "Candi Borobudur", sites[0].Name)
	assert.Equal(t, 5, sites[0].BuildingCount)
	assert.Equal(t, "Candi Prambanan", sites[1].Name)
	assert.Equal(t, 4, sites[1].BuildingCount)
}

func TestTxLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		site, ok, err := tx.SiteByQRCode(ctx, "BOROBUDUR_QR_2024")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "site-borobudur", site.ID)

		_, ok, err = tx.SiteByQRCode(ctx, "NOPE")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = tx.SiteByID(ctx, "site-prambanan")
		require.NoError(t, err)
		assert.True(t, ok)

		b, ok, err := tx.Building(ctx, "bld-borobudur-main-stupa")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 5, b.VisitOrder)

		q, ok, err := tx.TriviaQuestion(ctx, "q-borobudur-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "B", q.CorrectOption)
		return nil
	})
	require.NoError(t, err)
}

func TestTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		require.NoError(t, tx.EnsureProfile(ctx, "u1", time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.CreatedAt.IsZero(), "profile should not have been committed")
}

func TestTxOneActiveTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		first := heritage.Trip{ID: "t1", UserID: "u1", SiteID: "site-borobudur", Status: heritage.TripActive, StartedAt: now}
		ok, err := tx.InsertTrip(ctx, first)
		require.NoError(t, err)
		assert.True(t, ok)

		second := first
		second.ID = "t2"
		ok, err = tx.InsertTrip(ctx, second)
		require.NoError(t, err)
		assert.False(t, ok, "second active trip must be rejected")

		moved, err := tx.TransitionTrip(ctx, "t1", heritage.TripActive, heritage.TripCompleted, now)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = tx.TransitionTrip(ctx, "t1", heritage.TripActive, heritage.TripCompleted, now)
		require.NoError(t, err)
		assert.False(t, moved)

		trip, ok, err := tx.Trip(ctx, "t1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, heritage.TripCompleted, trip.Status)
		require.NotNil(t, trip.CompletedAt)

		ok, err = tx.InsertTrip(ctx, second)
		require.NoError(t, err)
		assert.True(t, ok, "a new trip is allowed once the first completed")
		return nil
	})
	require.NoError(t, err)
}

func TestTxTallyCountsFirstAttempt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		require.NoError(t, tx.EnsureProfile(ctx, "u1", now))
		require.NoError(t, tx.InsertSession(ctx, heritage.GameSession{
			ID: "s1", UserID: "u1", SiteID: "site-borobudur", Type: heritage.SessionTrivia, StartedAt: now,
		}))

		answers := []struct {
			question string
			attempt  int
			correct  bool
		}{
			{"q-borobudur-1", 1, false},
			{"q-borobudur-1", 2, true},
			{"q-borobudur-2", 1, true},
		}
		for _, a := range answers {
			ok, err := tx.InsertTriviaAnswer(ctx, heritage.TriviaAnswer{
				SessionID: "s1", UserID: "u1", SiteID: "site-borobudur", QuestionID: a.question,
				SelectedOption: "A", IsCorrect: a.correct, AttemptNumber: a.attempt, AnsweredAt: now,
			})
			require.NoError(t, err)
			assert.True(t, ok)
		}

		correct, total, err := tx.TallySession(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 1, correct)
		assert.Equal(t, 2, total)
		return nil
	})
	require.NoError(t, err)
}

func TestTxLatestSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		for i, id := range []string{"s1", "s2"} {
			require.NoError(t, tx.InsertSession(ctx, heritage.GameSession{
				ID: id, UserID: "u1", SiteID: "site-borobudur", Type: heritage.SessionTrivia,
				StartedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}
		ok, err := tx.CompleteSession(ctx, "s2", base.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, ok)

		latest, ok, err := tx.LatestSession(ctx, "u1", "site-borobudur", heritage.SessionTrivia, false)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "s2", latest.ID)

		open, ok, err := tx.LatestSession(ctx, "u1", "site-borobudur", heritage.SessionTrivia, true)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "s1", open.ID)

		_, ok, err = tx.LatestSession(ctx, "u1", "site-borobudur", heritage.SessionOverview, false)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestTriviaQuestionsHideAnswers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	qs, err := s.TriviaQuestions(ctx, "site-borobudur")
	require.NoError(t, err)
	require.Len(t, qs, 5)
	assert.Equal(t, "q-borobudur-1", qs[0].ID)
	assert.Equal(t, "Sailendra", qs[0].Options["B"])

	_, err = s.TriviaQuestions(ctx, "missing")
	assert.ErrorIs(t, err, heritage.ErrNotFound)
}

func TestLeaderboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		for i, u := range []string{"early", "late", "champ"} {
			require.NoError(t, tx.EnsureProfile(ctx, u, now.Add(time.Duration(i)*time.Second)))
		}
		for _, pb := range []heritage.ProfileBadge{
			{ProfileID: "champ", BadgeID: "badge-borobudur", EarnedAt: now},
			{ProfileID: "champ", BadgeID: "badge-prambanan", EarnedAt: now},
			{ProfileID: "late", BadgeID: "badge-borobudur", EarnedAt: now},
			{ProfileID: "early", BadgeID: "badge-borobudur", EarnedAt: now},
		} {
			ok, err := tx.InsertProfileBadge(ctx, pb)
			require.NoError(t, err)
			require.True(t, ok)
			require.NoError(t, tx.IncrementTotalBadges(ctx, pb.ProfileID))
		}
		ok, err := tx.InsertTrip(ctx, heritage.Trip{ID: "t1", UserID: "champ", SiteID: "site-prambanan",
			Status: heritage.TripActive, StartedAt: now})
		require.NoError(t, err)
		require.True(t, ok)
		_, err = tx.TransitionTrip(ctx, "t1", heritage.TripActive, heritage.TripCompleted, now)
		return err
	})
	require.NoError(t, err)

	_, err = s.SetDisplayName(ctx, "champ", "Sari")
	require.NoError(t, err)

	board, err := s.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, LeaderboardEntry{Rank: 1, UserID: "champ", DisplayName: "Sari", TotalBadges: 2, Location: "Yogyakarta"}, board[0])
	assert.Equal(t, "early", board[1].UserID)
	assert.Equal(t, DefaultLocation, board[1].Location)
	assert.Equal(t, "late", board[2].UserID)
}

func TestBadgeStatsCountsRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	earned := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	stats, err := s.BadgeStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalBadges)
	assert.Nil(t, stats.LastEarnedAt)

	err = s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		require.NoError(t, tx.EnsureProfile(ctx, "u1", earned))
		_, err := tx.InsertProfileBadge(ctx, heritage.ProfileBadge{ProfileID: "u1", BadgeID: "badge-borobudur", EarnedAt: earned})
		return err
	})
	require.NoError(t, err)

	stats, err = s.BadgeStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBadges)
	require.NotNil(t, stats.LastEarnedAt)
	assert.True(t, stats.LastEarnedAt.Equal(earned))

	badges, err := s.UserBadges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "Candi Borobudur", badges[0].SiteName)
}

func TestPutSiteReplacesContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.SiteContent(ctx, "site-prambanan")
	require.NoError(t, err)
	require.Len(t, c.Buildings, 4)

	// Reverse the order and drop the last building.
	c.Buildings = c.Buildings[:3]
	for i := range c.Buildings {
		c.Buildings[i].VisitOrder = 3 - i
	}
	c.Questions = c.Questions[:1]
	c.Badge.Title = "Trimurti Pilgrim"
	require.NoError(t, s.PutSite(ctx, c))

	got, err := s.SiteContent(ctx, "site-prambanan")
	require.NoError(t, err)
	require.Len(t, got.Buildings, 3)
	assert.Equal(t, "bld-prambanan-vishnu", got.Buildings[0].ID)
	assert.Len(t, got.Questions, 1)
	require.NotNil(t, got.Badge)
	assert.Equal(t, "Trimurti Pilgrim", got.Badge.Title)
	assert.Equal(t, "badge-prambanan", got.Badge.ID)
}

func TestDeleteSite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteSite(ctx, "site-prambanan"))
	assert.ErrorIs(t, s.DeleteSite(ctx, "site-prambanan"), heritage.ErrSiteNotFound)

	_, err := s.SiteDetail(ctx, "site-prambanan")
	assert.ErrorIs(t, err, heritage.ErrNotFound)
}

func TestDeleteSiteRecountsBadges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		for _, pb := range []heritage.ProfileBadge{
			{ProfileID: "u1", BadgeID: "badge-prambanan", EarnedAt: now},
			{ProfileID: "u2", BadgeID: "badge-prambanan", EarnedAt: now},
			{ProfileID: "u2", BadgeID: "badge-borobudur", EarnedAt: now},
		} {
			require.NoError(t, tx.EnsureProfile(ctx, pb.ProfileID, now))
			_, err := tx.InsertProfileBadge(ctx, pb)
			require.NoError(t, err)
			require.NoError(t, tx.IncrementTotalBadges(ctx, pb.ProfileID))
		}
		// u3 owns nothing from the deleted site and keeps its counter.
		require.NoError(t, tx.EnsureProfile(ctx, "u3", now))
		return tx.SetTotalBadges(ctx, "u3", 4)
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSite(ctx, "site-prambanan"))

	for user, want := range map[string]int{"u1": 0, "u2": 1} {
		profile, err := s.Profile(ctx, user)
		require.NoError(t, err)
		stats, err := s.BadgeStats(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, want, profile.TotalBadges, user)
		assert.Equal(t, stats.TotalBadges, profile.TotalBadges, user)
	}

	untouched, err := s.Profile(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, 4, untouched.TotalBadges)

	board, err := s.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []string{"u3", "u2", "u1"}, []string{board[0].UserID, board[1].UserID, board[2].UserID})
	assert.Equal(t, 0, board[2].TotalBadges)
}

func TestAdminSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureAdmin(ctx, "Admin@Example.com", "secret"))
	require.NoError(t, s.EnsureAdmin(ctx, "admin@example.com", "other"))

	id, hash, err := s.AdminByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, hash)

	_, _, err = s.AdminByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrAdminNotFound)

	sid, err := s.CreateAdminSession(ctx, id)
	require.NoError(t, err)

	sess, err := s.AdminFromSession(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, AdminSession{AdminID: id, Email: "admin@example.com"}, sess)

	require.NoError(t, s.DeleteAdminSession(ctx, sid))
	_, err = s.AdminFromSession(ctx, sid)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked"), true},
		{fmt.Errorf("commit: %w", errors.New("SQLITE_BUSY")), true},
		{errors.New("constraint failed"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isBusy(tt.err), "%v", tt.err)
	}
}

func TestInTxRetriesBusy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	calls := 0
	err := s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = s.InTx(ctx, func(ctx context.Context, tx heritage.Tx) error {
		calls++
		return errors.New("database is locked")
	})
	assert.ErrorIs(t, err, heritage.ErrStoreUnavailable)
	assert.Equal(t, 4, calls, "one attempt plus three retries")
}
