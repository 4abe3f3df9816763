package heritage

import (
	"context"
	"time"
)

// Store runs fn inside one transaction. fn may be invoked more than once
// when the store retries a transient failure, so it must not leak state
// between attempts.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes the state machine performs. Lookups
// report absence through the bool result, never through an error. Insert
// methods report false when a uniqueness constraint already held the row.
type Tx interface {
	SiteByQRCode(ctx context.Context, code string) (Site, bool, error)
	SiteByID(ctx context.Context, id string) (Site, bool, error)
	CountBuildings(ctx context.Context, siteID string) (int, error)
	Building(ctx context.Context, id string) (Building, bool, error)

	EnsureProfile(ctx context.Context, userID string, at time.Time) error

	Trip(ctx context.Context, id string) (Trip, bool, error)
	ActiveTrip(ctx context.Context, userID, siteID string) (Trip, bool, error)
	InsertTrip(ctx context.Context, t Trip) (bool, error)
	// TransitionTrip moves a trip from one status to another. It reports
	// false when the trip was no longer in status from.
	TransitionTrip(ctx context.Context, id string, from, to TripStatus, at time.Time) (bool, error)

	VisitExists(ctx context.Context, tripID, buildingID string) (bool, error)
	InsertVisit(ctx context.Context, v BuildingVisit) (bool, error)
	CountVisits(ctx context.Context, tripID string) (int, error)
	TripBuildings(ctx context.Context, tripID, siteID string) ([]BuildingProgress, error)

	InsertSession(ctx context.Context, s GameSession) error
	// LatestSession returns the most recent session by start time. With
	// openOnly set, completed sessions are skipped.
	LatestSession(ctx context.Context, userID, siteID string, typ SessionType, openOnly bool) (GameSession, bool, error)
	CompleteSession(ctx context.Context, id string, at time.Time) (bool, error)
	AddSessionScore(ctx context.Context, id string, delta int) (int, error)

	TriviaQuestion(ctx context.Context, id string) (TriviaQuestion, bool, error)
	TriviaAnswer(ctx context.Context, sessionID, questionID string, attempt int) (TriviaAnswer, bool, error)
	HasAnswer(ctx context.Context, sessionID, questionID string) (bool, error)
	InsertTriviaAnswer(ctx context.Context, a TriviaAnswer) (bool, error)
	// TallySession counts, per question, the first recorded attempt.
	TallySession(ctx context.Context, sessionID string) (correct, total int, err error)

	BadgeForSite(ctx context.Context, siteID string) (Badge, bool, error)
	InsertBadge(ctx context.Context, b Badge) (bool, error)
	InsertProfileBadge(ctx context.Context, pb ProfileBadge) (bool, error)
	IncrementTotalBadges(ctx context.Context, userID string) error
	CountProfileBadges(ctx context.Context, userID string) (int, error)
	SetTotalBadges(ctx context.Context, userID string, n int) error
}
