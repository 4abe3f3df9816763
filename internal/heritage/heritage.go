// Package heritage holds the trip and game-session state machine: resolving
// scanned codes to sites, walking a site's buildings, scoring trivia and
// issuing badges. Persistence is reached through the Store interface; every
// operation runs inside one Store transaction.
package heritage

import "time"

type Site struct {
	ID               string
	Name             string
	Region           string
	Description      string
	YearBuilt        string
	QRCode           string
	EstimatedMinutes int
	ImageURL         string
	CreatedAt        time.Time
}

// ResolvedSite is a site plus the number of buildings a trip has to visit.
type ResolvedSite struct {
	Site
	BuildingCount int
}

type Building struct {
	ID          string
	SiteID      string
	Name        string
	Category    string
	Description string
	VisitOrder  int
	Latitude    float64
	Longitude   float64
}

// BuildingProgress is a building annotated with a trip's visit.
type BuildingProgress struct {
	Building
	Visited   bool
	VisitedAt *time.Time
	Notes     string
}

type TripStatus string

const (
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripAbandoned TripStatus = "abandoned"
)

type Trip struct {
	ID          string
	UserID      string
	SiteID      string
	Status      TripStatus
	StartedAt   time.Time
	CompletedAt *time.Time
}

type BuildingVisit struct {
	TripID     string
	BuildingID string
	VisitedAt  time.Time
	Notes      string
}

type SessionType string

const (
	SessionOverview SessionType = "overview"
	SessionTrivia   SessionType = "trivia"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	return t == SessionOverview || t == SessionTrivia
}

type GameSession struct {
	ID          string
	UserID      string
	SiteID      string
	Type        SessionType
	StartedAt   time.Time
	CompletedAt *time.Time
	Score       int
}

type OverviewPage struct {
	ID       string
	SiteID   string
	Order    int
	Title    string
	Body     string
	ImageURL string
}

type TriviaQuestion struct {
	ID            string
	SiteID        string
	Order         int
	Question      string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
	Explanation   string
}

type TriviaAnswer struct {
	SessionID      string
	UserID         string
	SiteID         string
	QuestionID     string
	SelectedOption string
	IsCorrect      bool
	AttemptNumber  int
	AnsweredAt     time.Time
}

type Badge struct {
	ID        string
	SiteID    string
	Title     string
	Info      string
	ImageURL  string
	CreatedAt time.Time
}

type ProfileBadge struct {
	ProfileID string
	BadgeID   string
	EarnedAt  time.Time
}

type Profile struct {
	ID          string
	DisplayName string
	TotalBadges int
	CreatedAt   time.Time
}

// SiteContent is a full authored site: the site row and everything hanging
// off it. It is replaced as a unit by content authoring.
type SiteContent struct {
	Site      Site
	Buildings []Building
	Overview  []OverviewPage
	Questions []TriviaQuestion
	Badge     *Badge
}
