package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/cinemabot/internal/domain"
	"github.com/ashureev/cinemabot/internal/shared"
	"github.com/avast/retry-go/v4"
	_ "modernc.org/sqlite"
)

const (
	appendMaxAttempts = 3
	appendBaseDelay   = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // one in-flight statement at a time
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	return openSQLite(dbPath)
}

func openSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS history (
		chat_id TEXT NOT NULL,
		movie_title TEXT NOT NULL,
		movie_count INTEGER DEFAULT 1
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendHistory inserts one row with the default count.
// Retries with exponential backoff on SQLITE_BUSY errors.
func (s *SQLiteStore) AppendHistory(ctx context.Context, userID, title string) error {
	err := retry.Do(
		func() error { return s.appendOnce(ctx, userID, title) },
		retry.Context(ctx),
		retry.Attempts(appendMaxAttempts),
		retry.Delay(appendBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(shared.IsSQLiteConflictError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("AppendHistory failed with SQLITE_BUSY, retrying",
				"user_id", userID,
				"attempt", n+1,
				"error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("append history for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) appendOnce(ctx context.Context, userID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO history (chat_id, movie_title) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, userID, title); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Statistics groups the user's rows by title, summing counts.
func (s *SQLiteStore) Statistics(ctx context.Context, userID string) ([]domain.TitleCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT movie_title, SUM(movie_count)
		FROM history
		WHERE chat_id = ?
		GROUP BY movie_title`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close statistics rows", "error", closeErr)
		}
	}()

	stats := make([]domain.TitleCount, 0)
	for rows.Next() {
		var tc domain.TitleCount
		if err := rows.Scan(&tc.Title, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan statistics row: %w", err)
		}
		stats = append(stats, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statistics: %w", err)
	}

	return stats, nil
}

// RecentHistory returns the user's titles in insertion order.
func (s *SQLiteStore) RecentHistory(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT movie_title
		FROM history
		WHERE chat_id = ?
		ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close history rows", "error", closeErr)
		}
	}()

	titles := make([]string, 0)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return titles, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
