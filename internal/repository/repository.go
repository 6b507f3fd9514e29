package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Tago-F/onsen-review/internal/domain"
)

// DB is the subset of the pgx pool used by repositories. Both *pgxpool.Pool
// and pgxmock satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// List returns all reviews, newest first.
	List(ctx context.Context) ([]domain.Review, error)

	// GetByID returns a single review or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// Create inserts the review and fills in its generated ID and timestamps.
	Create(ctx context.Context, review *domain.Review) error

	// Update replaces all mutable fields of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by ID. Deleting a missing review returns
	// apperrors.ErrNotFound.
	Delete(ctx context.Context, id int64) error
}
