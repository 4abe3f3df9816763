package server

import (
	"context"

	"github.com/playperu/heritagequest/internal/heritage"
	"github.com/playperu/heritagequest/internal/store"
)

// Reads are the query-side views served next to the state machine.
type Reads interface {
	ListSites(ctx context.Context) ([]store.SiteSummary, error)
	SiteDetail(ctx context.Context, siteID string) (store.SiteDetail, error)
	OverviewPages(ctx context.Context, siteID string) ([]heritage.OverviewPage, error)
	TriviaQuestions(ctx context.Context, siteID string) ([]store.PublicQuestion, error)

	TripsByStatus(ctx context.Context, userID string, status heritage.TripStatus) ([]store.TripSummary, error)
	UserBadges(ctx context.Context, userID string) ([]store.EarnedBadge, error)
	BadgeStats(ctx context.Context, userID string) (store.BadgeStats, error)
	Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error)

	Profile(ctx context.Context, userID string) (heritage.Profile, error)
	SetDisplayName(ctx context.Context, userID, name string) (heritage.Profile, error)
}

type AdminStore interface {
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (sessionID string, err error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (store.AdminSession, error)

	SiteContent(ctx context.Context, siteID string) (heritage.SiteContent, error)
	PutSite(ctx context.Context, c heritage.SiteContent) error
	DeleteSite(ctx context.Context, siteID string) error
}

var (
	_ Reads      = (*store.SQLiteStore)(nil)
	_ AdminStore = (*store.SQLiteStore)(nil)
)
