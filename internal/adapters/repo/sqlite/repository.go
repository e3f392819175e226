// Package sqlite provides the SQLite-backed karma repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/bnema/karmabot/internal/adapters/repo/sqlite/migrations"
	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

const dirMode = 0o700

// Repository persists karma records in a single SQLite table.
type Repository struct {
	db   *sql.DB
	path string
}

var _ ports.KarmaRepository = (*Repository)(nil)

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("storage path is required")
	}
	path = filepath.Clean(path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, path: path}, nil
}

func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Get(ctx context.Context, subject domain.Subject) (domain.KarmaRecord, error) {
	var (
		score     int64
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT score, updated_at FROM karma WHERE subject = ?`,
		string(subject),
	).Scan(&score, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.KarmaRecord{}, domain.ErrSubjectNotFound
	}
	if err != nil {
		return domain.KarmaRecord{}, classify("get karma", err)
	}

	return domain.KarmaRecord{Subject: subject, Score: score, UpdatedAt: fromMillis(updatedAt)}, nil
}

func (r *Repository) Save(ctx context.Context, record domain.KarmaRecord) error {
	if record.Subject == "" {
		return domain.ErrInvalidSubject
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO karma (subject, score, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (subject) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		string(record.Subject), record.Score, toMillis(updatedAt),
	)
	if err != nil {
		return classify("save karma", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, order domain.RankingOrder, limit int) ([]domain.KarmaRecord, error) {
	query := `SELECT subject, score, updated_at FROM karma ORDER BY score DESC, subject ASC LIMIT ?`
	if order == domain.RankingBottom {
		query = `SELECT subject, score, updated_at FROM karma ORDER BY score ASC, subject ASC LIMIT ?`
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, classify("list karma", err)
	}
	defer rows.Close()

	var records []domain.KarmaRecord
	for rows.Next() {
		var (
			subject   string
			score     int64
			updatedAt int64
		)
		if err := rows.Scan(&subject, &score, &updatedAt); err != nil {
			return nil, classify("scan karma", err)
		}
		records = append(records, domain.KarmaRecord{
			Subject:   domain.Subject(subject),
			Score:     score,
			UpdatedAt: fromMillis(updatedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list karma", err)
	}

	return records, nil
}

func classify(op string, err error) error {
	if isBusy(err) {
		return fmt.Errorf("%s: database busy: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
		return true
	}
	return false
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
