package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/playperu/heritagequest/internal/heritage"
)

// DefaultLocation is shown on the leaderboard for players without a
// completed trip.
const DefaultLocation = "Jakarta, Indonesia"

type SiteSummary struct {
	heritage.Site
	BuildingCount int
}

type SiteDetail struct {
	heritage.Site
	Buildings []heritage.Building
}

// PublicQuestion is a trivia question without its answer.
type PublicQuestion struct {
	ID       string
	Order    int
	Question string
	Options  map[string]string
}

type TripSummary struct {
	heritage.Trip
	SiteName     string
	SiteRegion   string
	VisitedCount int
	TotalCount   int
}

type EarnedBadge struct {
	heritage.Badge
	SiteName string
	EarnedAt time.Time
}

type BadgeStats struct {
	TotalBadges  int
	LastEarnedAt *time.Time
}

type LeaderboardEntry struct {
	Rank        int
	UserID      string
	DisplayName string
	TotalBadges int
	Location    string
}

func (s *SQLiteStore) ListSites(ctx context.Context) ([]SiteSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+siteColumns+`,
			(SELECT COUNT(*) FROM buildings b WHERE b.site_id = sites.id)
		FROM sites
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	sites := []SiteSummary{}
	for rows.Next() {
		var (
			ss        SiteSummary
			createdAt string
		)
		if err := rows.Scan(&ss.ID, &ss.Name, &ss.Region, &ss.Description, &ss.YearBuilt,
			&ss.QRCode, &ss.EstimatedMinutes, &ss.ImageURL, &createdAt, &ss.BuildingCount); err != nil {
			return nil, err
		}
		ss.CreatedAt = parseTime(createdAt)
		sites = append(sites, ss)
	}
	return sites, rows.Err()
}

func (s *SQLiteStore) SiteDetail(ctx context.Context, siteID string) (SiteDetail, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = ?`, siteID))
	if ok, err := noRows(err); err != nil {
		return SiteDetail{}, err
	} else if !ok {
		return SiteDetail{}, heritage.ErrSiteNotFound
	}

	buildings, err := s.siteBuildings(ctx, siteID)
	if err != nil {
		return SiteDetail{}, err
	}
	return SiteDetail{Site: site, Buildings: buildings}, nil
}

func (s *SQLiteStore) siteBuildings(ctx context.Context, siteID string) ([]heritage.Building, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE site_id = ? ORDER BY visit_order`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buildings := []heritage.Building{}
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

func (s *SQLiteStore) siteExists(ctx context.Context, siteID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sites WHERE id = ?`, siteID).Scan(&one)
	ok, err := noRows(err)
	if err != nil {
		return err
	}
	if !ok {
		return heritage.ErrSiteNotFound
	}
	return nil
}

func (s *SQLiteStore) OverviewPages(ctx context.Context, siteID string) ([]heritage.OverviewPage, error) {
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, page_order, title, body, image_url
		FROM overview_pages WHERE site_id = ?
		ORDER BY page_order
	`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []heritage.OverviewPage{}
	for rows.Next() {
		var p heritage.OverviewPage
		if err := rows.Scan(&p.ID, &p.SiteID, &p.Order, &p.Title, &p.Body, &p.ImageURL); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// TriviaQuestions lists a site's questions in order. Correct options and
// explanations are left out; they are revealed per answer.
func (s *SQLiteStore) TriviaQuestions(ctx context.Context, siteID string) ([]PublicQuestion, error) {
	if err := s.siteExists(ctx, siteID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM trivia_questions WHERE site_id = ? ORDER BY question_order`,
		siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []PublicQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, PublicQuestion{
			ID:       q.ID,
			Order:    q.Order,
			Question: q.Question,
			Options: map[string]string{
				"A": q.OptionA,
				"B": q.OptionB,
				"C": q.OptionC,
				"D": q.OptionD,
			},
		})
	}
	return questions, rows.Err()
}

// TripsByStatus lists the user's trips with the given status, newest first.
func (s *SQLiteStore) TripsByStatus(ctx context.Context, userID string, status heritage.TripStatus) ([]TripSummary, error) {
	order := "t.started_at DESC"
	if status == heritage.TripCompleted {
		order = "t.completed_at DESC"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.site_id, t.status, t.started_at, t.completed_at,
			s.name, s.region,
			(SELECT COUNT(*) FROM building_visits v WHERE v.trip_id = t.id),
			(SELECT COUNT(*) FROM buildings b WHERE b.site_id = t.site_id)
		FROM trips t
		JOIN sites s ON s.id = t.site_id
		WHERE t.user_id = ? AND t.status = ?
		ORDER BY `+order, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	trips := []TripSummary{}
	for rows.Next() {
		var (
			ts          TripSummary
			startedAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&ts.ID, &ts.UserID, &ts.SiteID, &ts.Status, &startedAt, &completedAt,
			&ts.SiteName, &ts.SiteRegion, &ts.VisitedCount, &ts.TotalCount); err != nil {
			return nil, err
		}
		ts.StartedAt = parseTime(startedAt)
		ts.CompletedAt = parseNullTime(completedAt)
		trips = append(trips, ts)
	}
	return trips, rows.Err()
}

func (s *SQLiteStore) UserBadges(ctx context.Context, userID string) ([]EarnedBadge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.site_id, b.title, b.info, b.image_url, b.created_at, s.name, pb.earned_at
		FROM profile_badges pb
		JOIN badges b ON b.id = pb.badge_id
		JOIN sites s ON s.id = b.site_id
		WHERE pb.profile_id = ?
		ORDER BY pb.earned_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing badges: %w", err)
	}
	defer rows.Close()

	badges := []EarnedBadge{}
	for rows.Next() {
		var (
			eb                  EarnedBadge
			createdAt, earnedAt string
		)
		if err := rows.Scan(&eb.ID, &eb.SiteID, &eb.Title, &eb.Info, &eb.ImageURL, &createdAt,
			&eb.SiteName, &earnedAt); err != nil {
			return nil, err
		}
		eb.CreatedAt = parseTime(createdAt)
		eb.EarnedAt = parseTime(earnedAt)
		badges = append(badges, eb)
	}
	return badges, rows.Err()
}

// BadgeStats counts earned badge rows at query time rather than trusting the
// denormalized total on the profile.
func (s *SQLiteStore) BadgeStats(ctx context.Context, userID string) (BadgeStats, error) {
	var (
		stats BadgeStats
		last  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(earned_at) FROM profile_badges WHERE profile_id = ?
	`, userID).Scan(&stats.TotalBadges, &last)
	if err != nil {
		return BadgeStats{}, err
	}
	stats.LastEarnedAt = parseNullTime(last)
	return stats, nil
}

// Leaderboard ranks players by badges earned, earliest profile first on ties.
// A player's location is the region of their most recently completed trip.
func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.display_name, p.total_badges,
			COALESCE((
				SELECT s.region FROM trips t
				JOIN sites s ON s.id = t.site_id
				WHERE t.user_id = p.id AND t.status = 'completed' AND s.region <> ''
				ORDER BY t.completed_at DESC LIMIT 1
			), '')
		FROM profiles p
		ORDER BY p.total_badges DESC, p.created_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.TotalBadges, &e.Location); err != nil {
			return nil, err
		}
		if e.DisplayName == "" {
			e.DisplayName = e.UserID
		}
		if e.Location == "" {
			e.Location = DefaultLocation
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Profile(ctx context.Context, userID string) (heritage.Profile, error) {
	var (
		p         heritage.Profile
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, total_badges, created_at FROM profiles WHERE id = ?`, userID,
	).Scan(&p.ID, &p.DisplayName, &p.TotalBadges, &createdAt)
	if ok, err := noRows(err); err != nil {
		return heritage.Profile{}, err
	} else if !ok {
		// Profiles are created lazily by the first trip or session.
		return heritage.Profile{ID: userID}, nil
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

func (s *SQLiteStore) SetDisplayName(ctx context.Context, userID, name string) (heritage.Profile, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name
	`, userID, name, formatTime(time.Now()))
	if err != nil {
		return heritage.Profile{}, fmt.Errorf("updating profile: %w", err)
	}
	return s.Profile(ctx, userID)
}
