package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/playperu/heritagequest/internal/heritage"
)

// sqlTx implements heritage.Tx. SQLite cannot interleave cursors, so every
// rows loop is drained and closed before the next statement runs.
type sqlTx struct {
	tx *sql.Tx
}

var _ heritage.Tx = (*sqlTx)(nil)

const siteColumns = `id, name, region, description, year_built, COALESCE(qr_code, ''),
	estimated_minutes, image_url, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSite(row scanner) (heritage.Site, error) {
	var s heritage.Site
	var createdAt string
	err := row.Scan(&s.ID, &s.Name, &s.Region, &s.Description, &s.YearBuilt, &s.QRCode,
		&s.EstimatedMinutes, &s.ImageURL, &createdAt)
	s.CreatedAt = parseTime(createdAt)
	return s, err
}

func (t *sqlTx) SiteByQRCode(ctx context.Context, code string) (heritage.Site, bool, error) {
	s, err := scanSite(t.tx.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE qr_code = ?`, code))
	ok, err := noRows(err)
	return s, ok, err
}

func (t *sqlTx) SiteByID(ctx context.Context, id string) (heritage.Site, bool, error) {
	s, err := scanSite(t.tx.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = ?`, id))
	ok, err := noRows(err)
	return s, ok, err
}

func (t *sqlTx) CountBuildings(ctx context.Context, siteID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM buildings WHERE site_id = ?`, siteID).Scan(&n)
	return n, err
}

const buildingColumns = `id, site_id, name, category, description, visit_order, latitude, longitude`

func scanBuilding(row scanner, extra ...any) (heritage.Building, error) {
	var b heritage.Building
	dest := append([]any{&b.ID, &b.SiteID, &b.Name, &b.Category, &b.Description,
		&b.VisitOrder, &b.Latitude, &b.Longitude}, extra...)
	err := row.Scan(dest...)
	return b, err
}

func (t *sqlTx) Building(ctx context.Context, id string) (heritage.Building, bool, error) {
	b, err := scanBuilding(t.tx.QueryRowContext(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE id = ?`, id))
	ok, err := noRows(err)
	return b, ok, err
}

func (t *sqlTx) EnsureProfile(ctx context.Context, userID string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO profiles (id, created_at) VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING
	`, userID, formatTime(at))
	return err
}

const tripColumns = `id, user_id, site_id, status, started_at, completed_at`

func scanTrip(row scanner) (heritage.Trip, error) {
	var (
		tr          heritage.Trip
		startedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&tr.ID, &tr.UserID, &tr.SiteID, &tr.Status, &startedAt, &completedAt)
	tr.StartedAt = parseTime(startedAt)
	tr.CompletedAt = parseNullTime(completedAt)
	return tr, err
}

func (t *sqlTx) Trip(ctx context.Context, id string) (heritage.Trip, bool, error) {
	tr, err := scanTrip(t.tx.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	ok, err := noRows(err)
	return tr, ok, err
}

func (t *sqlTx) ActiveTrip(ctx context.Context, userID, siteID string) (heritage.Trip, bool, error) {
	tr, err := scanTrip(t.tx.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE user_id = ? AND site_id = ? AND status = 'active'`,
		userID, siteID))
	ok, err := noRows(err)
	return tr, ok, err
}

func (t *sqlTx) InsertTrip(ctx context.Context, tr heritage.Trip) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO trips (id, user_id, site_id, status, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, tr.ID, tr.UserID, tr.SiteID, string(tr.Status), formatTime(tr.StartedAt))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) TransitionTrip(ctx context.Context, id string, from, to heritage.TripStatus, at time.Time) (bool, error) {
	var completedAt sql.NullString
	if to == heritage.TripCompleted {
		completedAt = nullString(formatTime(at))
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE trips SET status = ?, completed_at = COALESCE(?, completed_at)
		WHERE id = ? AND status = ?
	`, string(to), completedAt, id, string(from))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) VisitExists(ctx context.Context, tripID, buildingID string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		`SELECT 1 FROM building_visits WHERE trip_id = ? AND building_id = ?`,
		tripID, buildingID).Scan(&one)
	return noRows(err)
}

func (t *sqlTx) InsertVisit(ctx context.Context, v heritage.BuildingVisit) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO building_visits (trip_id, building_id, visited_at, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (trip_id, building_id) DO NOTHING
	`, v.TripID, v.BuildingID, formatTime(v.VisitedAt), nullString(v.Notes))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) CountVisits(ctx context.Context, tripID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT v.building_id)
		FROM building_visits v
		JOIN trips tr ON tr.id = v.trip_id
		JOIN buildings b ON b.id = v.building_id AND b.site_id = tr.site_id
		WHERE v.trip_id = ?
	`, tripID).Scan(&n)
	return n, err
}

func (t *sqlTx) TripBuildings(ctx context.Context, tripID, siteID string) ([]heritage.BuildingProgress, error) {
	return tripBuildings(ctx, t.tx, tripID, siteID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tripBuildings(ctx context.Context, q querier, tripID, siteID string) ([]heritage.BuildingProgress, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT b.id, b.site_id, b.name, b.category, b.description, b.visit_order,
			b.latitude, b.longitude, v.visited_at, COALESCE(v.notes, '')
		FROM buildings b
		LEFT JOIN building_visits v ON v.building_id = b.id AND v.trip_id = ?
		WHERE b.site_id = ?
		ORDER BY b.visit_order
	`, tripID, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := []heritage.BuildingProgress{}
	for rows.Next() {
		var (
			visitedAt sql.NullString
			notes     string
		)
		b, err := scanBuilding(rows, &visitedAt, &notes)
		if err != nil {
			return nil, err
		}
		progress = append(progress, heritage.BuildingProgress{
			Building:  b,
			Visited:   visitedAt.Valid,
			VisitedAt: parseNullTime(visitedAt),
			Notes:     notes,
		})
	}
	return progress, rows.Err()
}

const sessionColumns = `id, user_id, site_id, session_type, started_at, completed_at, score`

func scanSession(row scanner) (heritage.GameSession, error) {
	var (
		gs          heritage.GameSession
		startedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&gs.ID, &gs.UserID, &gs.SiteID, &gs.Type, &startedAt, &completedAt, &gs.Score)
	gs.StartedAt = parseTime(startedAt)
	gs.CompletedAt = parseNullTime(completedAt)
	return gs, err
}

func (t *sqlTx) InsertSession(ctx context.Context, gs heritage.GameSession) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO game_sessions (id, user_id, site_id, session_type, started_at, score)
		VALUES (?, ?, ?, ?, ?, ?)
	`, gs.ID, gs.UserID, gs.SiteID, string(gs.Type), formatTime(gs.StartedAt), gs.Score)
	return err
}

func (t *sqlTx) LatestSession(ctx context.Context, userID, siteID string, typ heritage.SessionType, openOnly bool) (heritage.GameSession, bool, error) {
	query := `SELECT ` + sessionColumns + ` FROM game_sessions
		WHERE user_id = ? AND site_id = ? AND session_type = ?`
	if openOnly {
		query += ` AND completed_at IS NULL`
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT 1`

	gs, err := scanSession(t.tx.QueryRowContext(ctx, query, userID, siteID, string(typ)))
	ok, err := noRows(err)
	return gs, ok, err
}

func (t *sqlTx) CompleteSession(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE game_sessions SET completed_at = ? WHERE id = ? AND completed_at IS NULL`,
		formatTime(at), id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) AddSessionScore(ctx context.Context, id string, delta int) (int, error) {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE game_sessions SET score = score + ? WHERE id = ?`, delta, id); err != nil {
		return 0, err
	}
	var score int
	err := t.tx.QueryRowContext(ctx, `SELECT score FROM game_sessions WHERE id = ?`, id).Scan(&score)
	return score, err
}

const questionColumns = `id, site_id, question_order, question, option_a, option_b, option_c,
	option_d, correct_option, explanation`

func scanQuestion(row scanner) (heritage.TriviaQuestion, error) {
	var q heritage.TriviaQuestion
	err := row.Scan(&q.ID, &q.SiteID, &q.Order, &q.Question, &q.OptionA, &q.OptionB,
		&q.OptionC, &q.OptionD, &q.CorrectOption, &q.Explanation)
	return q, err
}

func (t *sqlTx) TriviaQuestion(ctx context.Context, id string) (heritage.TriviaQuestion, bool, error) {
	q, err := scanQuestion(t.tx.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM trivia_questions WHERE id = ?`, id))
	ok, err := noRows(err)
	return q, ok, err
}

func (t *sqlTx) TriviaAnswer(ctx context.Context, sessionID, questionID string, attempt int) (heritage.TriviaAnswer, bool, error) {
	var (
		a          heritage.TriviaAnswer
		isCorrect  int
		answeredAt string
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT session_id, user_id, site_id, question_id, selected_option, is_correct,
			attempt_number, answered_at
		FROM trivia_answers
		WHERE session_id = ? AND question_id = ? AND attempt_number = ?
	`, sessionID, questionID, attempt).Scan(&a.SessionID, &a.UserID, &a.SiteID, &a.QuestionID,
		&a.SelectedOption, &isCorrect, &a.AttemptNumber, &answeredAt)
	a.IsCorrect = isCorrect == 1
	a.AnsweredAt = parseTime(answeredAt)
	ok, err := noRows(err)
	return a, ok, err
}

func (t *sqlTx) HasAnswer(ctx context.Context, sessionID, questionID string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		`SELECT 1 FROM trivia_answers WHERE session_id = ? AND question_id = ? LIMIT 1`,
		sessionID, questionID).Scan(&one)
	return noRows(err)
}

func (t *sqlTx) InsertTriviaAnswer(ctx context.Context, a heritage.TriviaAnswer) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO trivia_answers (session_id, user_id, site_id, question_id, selected_option,
			is_correct, attempt_number, answered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, question_id, attempt_number) DO NOTHING
	`, a.SessionID, a.UserID, a.SiteID, a.QuestionID, a.SelectedOption,
		boolInt(a.IsCorrect), a.AttemptNumber, formatTime(a.AnsweredAt))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) TallySession(ctx context.Context, sessionID string) (int, int, error) {
	var correct, total int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(a.is_correct), 0), COUNT(*)
		FROM trivia_answers a
		WHERE a.session_id = ?
		  AND a.rowid = (
			SELECT MIN(b.rowid) FROM trivia_answers b
			WHERE b.session_id = a.session_id AND b.question_id = a.question_id
		  )
	`, sessionID).Scan(&correct, &total)
	return correct, total, err
}

const badgeColumns = `id, site_id, title, info, image_url, created_at`

func scanBadge(row scanner) (heritage.Badge, error) {
	var (
		b         heritage.Badge
		createdAt string
	)
	err := row.Scan(&b.ID, &b.SiteID, &b.Title, &b.Info, &b.ImageURL, &createdAt)
	b.CreatedAt = parseTime(createdAt)
	return b, err
}

func (t *sqlTx) BadgeForSite(ctx context.Context, siteID string) (heritage.Badge, bool, error) {
	b, err := scanBadge(t.tx.QueryRowContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE site_id = ?`, siteID))
	ok, err := noRows(err)
	return b, ok, err
}

func (t *sqlTx) InsertBadge(ctx context.Context, b heritage.Badge) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO badges (id, site_id, title, info, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (site_id) DO NOTHING
	`, b.ID, b.SiteID, b.Title, b.Info, b.ImageURL, formatTime(b.CreatedAt))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) InsertProfileBadge(ctx context.Context, pb heritage.ProfileBadge) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO profile_badges (profile_id, badge_id, earned_at)
		VALUES (?, ?, ?)
		ON CONFLICT (profile_id, badge_id) DO NOTHING
	`, pb.ProfileID, pb.BadgeID, formatTime(pb.EarnedAt))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (t *sqlTx) IncrementTotalBadges(ctx context.Context, userID string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE profiles SET total_badges = total_badges + 1 WHERE id = ?`, userID)
	return err
}

func (t *sqlTx) CountProfileBadges(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profile_badges WHERE profile_id = ?`, userID).Scan(&n)
	return n, err
}

func (t *sqlTx) SetTotalBadges(ctx context.Context, userID string, n int) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE profiles SET total_badges = ? WHERE id = ?`, n, userID)
	return err
}
