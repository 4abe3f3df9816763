// Package store persists heritage data in SQLite through libSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/playperu/heritagequest/internal/heritage"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

type SQLiteStore struct {
	db      *sql.DB
	logger  *slog.Logger
	retries uint
}

func New(db *sql.DB, logger *slog.Logger, retries uint) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger, retries: retries}
}

// InTx runs fn in a transaction, retrying with exponential backoff while
// SQLite reports the database as busy. Any other error aborts immediately.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(ctx context.Context, tx heritage.Tx) error) error {
	op := func() error {
		err := s.runTx(ctx, func(tx *sql.Tx) error {
			return fn(ctx, &sqlTx{tx: tx})
		})
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second

	err := backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.retries)), ctx),
		func(err error, d time.Duration) {
			s.logger.Warn("transaction busy, retrying", "error", err, "backoff", d)
		},
	)
	if err != nil && isBusy(err) {
		return fmt.Errorf("%w: %v", heritage.ErrStoreUnavailable, err)
	}
	return err
}

func (s *SQLiteStore) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// noRows turns sql.ErrNoRows into found=false.
func noRows(err error) (bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
