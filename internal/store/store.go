// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/cinemabot/internal/domain"
)

// Repository defines the interface for the per-user lookup history.
// History is an append log; statistics are aggregated over it at read time.
type Repository interface {
	// AppendHistory records one successful lookup of title by userID.
	AppendHistory(ctx context.Context, userID, title string) error

	// Statistics returns per-title lookup counts for userID. Order is
	// whatever the storage engine yields. Empty, never nil, when no rows exist.
	Statistics(ctx context.Context, userID string) ([]domain.TitleCount, error)

	// RecentHistory returns every title looked up by userID, oldest first,
	// duplicates retained. Empty, never nil, when no rows exist.
	RecentHistory(ctx context.Context, userID string) ([]string, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
