package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/heritagequest/internal/heritage"
)

type AdminSession struct {
	AdminID string
	Email   string
}

var (
	// ErrAdminNotFound is returned for unknown admins and expired sessions.
	ErrAdminNotFound = errors.New("admin not found")

	ErrQRCodeTaken = &heritage.Error{Kind: heritage.KindConflict, Msg: "qr code is used by another site"}
)

// EnsureAdmin creates the admin account if no admin with that email exists.
// An existing account keeps its password.
func (s *SQLiteStore) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), email, string(hash), formatTime(time.Now()))
	return err
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM admins WHERE email = ?`, email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrAdminNotFound
	}
	return id, hash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, admin_id, created_at) VALUES (?, ?, ?)`,
		id, adminID, formatTime(time.Now()))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (AdminSession, error) {
	var as AdminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&as.AdminID, &as.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminSession{}, ErrAdminNotFound
	}
	return as, err
}

// PutSite creates or replaces a site together with its buildings, overview
// pages, questions and badge. Visits, answers and earned badges that point
// at removed rows go with them.
func (s *SQLiteStore) PutSite(ctx context.Context, c heritage.SiteContent) error {
	return s.runTx(ctx, func(tx *sql.Tx) error {
		return putSite(ctx, tx, c)
	})
}

func putSite(ctx context.Context, tx *sql.Tx, c heritage.SiteContent) error {
	site := c.Site
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sites (id, name, region, description, year_built, qr_code,
			estimated_minutes, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			region = excluded.region,
			description = excluded.description,
			year_built = excluded.year_built,
			qr_code = excluded.qr_code,
			estimated_minutes = excluded.estimated_minutes,
			image_url = excluded.image_url
	`, site.ID, site.Name, site.Region, site.Description, site.YearBuilt, nullString(site.QRCode),
		site.EstimatedMinutes, site.ImageURL, formatTime(site.CreatedAt))
	if isUniqueViolation(err) {
		return ErrQRCodeTaken
	}
	if err != nil {
		return fmt.Errorf("saving site: %w", err)
	}

	// Buildings are upserted by id so existing visits survive an edit.
	keep := make([]any, 0, len(c.Buildings)+1)
	keep = append(keep, site.ID)
	// Park visit orders out of range first so reordering does not trip the
	// (site_id, visit_order) constraint.
	if _, err := tx.ExecContext(ctx,
		`UPDATE buildings SET visit_order = -visit_order - 1 WHERE site_id = ?`, site.ID); err != nil {
		return err
	}
	for _, b := range c.Buildings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO buildings (id, site_id, name, category, description, visit_order,
				latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				description = excluded.description,
				visit_order = excluded.visit_order,
				latitude = excluded.latitude,
				longitude = excluded.longitude
			WHERE buildings.site_id = excluded.site_id
		`, b.ID, site.ID, b.Name, b.Category, b.Description, b.VisitOrder, b.Latitude, b.Longitude)
		if err != nil {
			return fmt.Errorf("saving building %s: %w", b.ID, err)
		}
		keep = append(keep, b.ID)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM buildings WHERE site_id = ?`+notIn(len(keep)-1), keep...); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM overview_pages WHERE site_id = ?`, site.ID); err != nil {
		return err
	}
	for _, p := range c.Overview {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO overview_pages (id, site_id, page_order, title, body, image_url)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, site.ID, p.Order, p.Title, p.Body, p.ImageURL)
		if err != nil {
			return fmt.Errorf("saving overview page %s: %w", p.ID, err)
		}
	}

	keep = append(keep[:0], site.ID)
	for _, q := range c.Questions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trivia_questions (id, site_id, question_order, question, option_a,
				option_b, option_c, option_d, correct_option, explanation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				question_order = excluded.question_order,
				question = excluded.question,
				option_a = excluded.option_a,
				option_b = excluded.option_b,
				option_c = excluded.option_c,
				option_d = excluded.option_d,
				correct_option = excluded.correct_option,
				explanation = excluded.explanation
			WHERE trivia_questions.site_id = excluded.site_id
		`, q.ID, site.ID, q.Order, q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			q.CorrectOption, q.Explanation)
		if err != nil {
			return fmt.Errorf("saving question %s: %w", q.ID, err)
		}
		keep = append(keep, q.ID)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trivia_questions WHERE site_id = ?`+notIn(len(keep)-1), keep...); err != nil {
		return err
	}

	if c.Badge != nil {
		b := *c.Badge
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO badges (id, site_id, title, info, image_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (site_id) DO UPDATE SET
				title = excluded.title,
				info = excluded.info,
				image_url = excluded.image_url
		`, b.ID, site.ID, b.Title, b.Info, b.ImageURL, formatTime(b.CreatedAt))
		if err != nil {
			return fmt.Errorf("saving badge: %w", err)
		}
	}
	return nil
}

func notIn(n int) string {
	if n == 0 {
		return ""
	}
	return " AND id NOT IN (?" + strings.Repeat(", ?", n-1) + ")"
}

// SiteContent loads everything PutSite writes, answers included.
func (s *SQLiteStore) SiteContent(ctx context.Context, siteID string) (heritage.SiteContent, error) {
	detail, err := s.SiteDetail(ctx, siteID)
	if err != nil {
		return heritage.SiteContent{}, err
	}
	c := heritage.SiteContent{Site: detail.Site, Buildings: detail.Buildings}

	if c.Overview, err = s.OverviewPages(ctx, siteID); err != nil {
		return heritage.SiteContent{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM trivia_questions WHERE site_id = ? ORDER BY question_order`,
		siteID)
	if err != nil {
		return heritage.SiteContent{}, err
	}
	c.Questions = []heritage.TriviaQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return heritage.SiteContent{}, err
		}
		c.Questions = append(c.Questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return heritage.SiteContent{}, err
	}

	b, err := scanBadge(s.db.QueryRowContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE site_id = ?`, siteID))
	ok, err := noRows(err)
	if err != nil {
		return heritage.SiteContent{}, err
	}
	if ok {
		c.Badge = &b
	}
	return c, nil
}

// DeleteSite removes a site and its content. Owners of the site's badge
// lose it, and their total_badges is recounted from the remaining rows in
// the same transaction.
func (s *SQLiteStore) DeleteSite(ctx context.Context, siteID string) error {
	return s.runTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET total_badges = (
				SELECT COUNT(*) FROM profile_badges pb
				JOIN badges b ON b.id = pb.badge_id
				WHERE pb.profile_id = profiles.id AND b.site_id <> ?
			)
			WHERE id IN (
				SELECT pb.profile_id FROM profile_badges pb
				JOIN badges b ON b.id = pb.badge_id
				WHERE b.site_id = ?
			)
		`, siteID, siteID); err != nil {
			return fmt.Errorf("recounting badges: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, siteID)
		if err != nil {
			return err
		}
		ok, err := affected(res)
		if err != nil {
			return err
		}
		if !ok {
			return heritage.ErrSiteNotFound
		}
		return nil
	})
}
