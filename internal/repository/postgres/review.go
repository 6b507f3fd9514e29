package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Tago-F/onsen-review/internal/domain"
	"github.com/Tago-F/onsen-review/internal/repository"
	apperrors "github.com/Tago-F/onsen-review/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db repository.DB
}

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(db repository.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, name, rating, comment, visited_date, quality, scenery, cleanliness, service, meal, image_url, created_at, updated_at`

// List returns all reviews, newest first.
func (r *ReviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("get review %d: %w", id, err)
	}
	return review, nil
}

// Create inserts a new review and fills in the generated ID and timestamps.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	query := `
		INSERT INTO reviews (name, rating, comment, visited_date, quality, scenery, cleanliness, service, meal, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		review.Name,
		review.Rating,
		review.Comment,
		visitedDateArg(review.VisitedDate),
		review.Quality,
		review.Scenery,
		review.Cleanliness,
		review.Service,
		review.Meal,
		review.ImageURL,
		review.CreatedAt,
		review.UpdatedAt,
	).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// Update replaces all mutable fields of an existing review.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET name = $1, rating = $2, comment = $3, visited_date = $4, quality = $5,
		    scenery = $6, cleanliness = $7, service = $8, meal = $9, image_url = $10,
		    updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		review.Name,
		review.Rating,
		review.Comment,
		visitedDateArg(review.VisitedDate),
		review.Quality,
		review.Scenery,
		review.Cleanliness,
		review.Service,
		review.Meal,
		review.ImageURL,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", fmt.Sprintf("%d", review.ID))
	}

	return nil
}

// Delete removes a review by ID.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", fmt.Sprintf("%d", id))
	}
	return nil
}

// visitedDateArg converts a *domain.Date into a nullable time argument.
func visitedDateArg(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// scanReview reads one review row, converting the nullable visited_date
// column back into the domain Date type.
func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		review  domain.Review
		visited *time.Time
	)

	if err := row.Scan(
		&review.ID,
		&review.Name,
		&review.Rating,
		&review.Comment,
		&visited,
		&review.Quality,
		&review.Scenery,
		&review.Cleanliness,
		&review.Service,
		&review.Meal,
		&review.ImageURL,
		&review.CreatedAt,
		&review.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if visited != nil {
		review.VisitedDate = &domain.Date{Time: *visited}
	}
	return &review, nil
}
