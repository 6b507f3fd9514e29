package client

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Form-level errors.
var (
	// ErrNameRequired is returned when the hot spring name is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrRatingRequired is returned when the overall rating is unset.
	ErrRatingRequired = errors.New("rating is required")

	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not finished.
	ErrSubmitInFlight = errors.New("submission already in progress")
)

// ReviewForm collects raw user input for a review and submits it through a
// store. Text fields left empty and ratings left at zero are coerced to
// JSON null rather than empty strings or zeros.
type ReviewForm struct {
	store *ReviewStore

	// EditingID is nil for a new review, or the ID being updated.
	EditingID *int64

	Name        string
	Rating      float64
	Comment     string
	VisitedDate string
	Quality     float64
	Scenery     float64
	Cleanliness float64
	Service     float64
	Meal        float64

	// Image is the file to upload, or nil to submit without a new image.
	Image *ImageFile

	// ExistingImageURL keeps a previously stored image when editing
	// without choosing a new file.
	ExistingImageURL string

	mu         sync.Mutex
	submitting bool
}

// NewReviewForm creates an empty form bound to the store.
func NewReviewForm(store *ReviewStore) *ReviewForm {
	return &ReviewForm{store: store}
}

// SeedFrom fills the draft from an existing review for edit mode. The
// pending image is cleared; the stored image URL is kept unless a new file
// is chosen before submit.
func (f *ReviewForm) SeedFrom(review *Review) {
	id := review.ID
	f.EditingID = &id
	f.Name = review.Name
	f.Rating = review.Rating
	f.Comment = deref(review.Comment)
	f.VisitedDate = deref(review.VisitedDate)
	f.Quality = derefRating(review.Quality)
	f.Scenery = derefRating(review.Scenery)
	f.Cleanliness = derefRating(review.Cleanliness)
	f.Service = derefRating(review.Service)
	f.Meal = derefRating(review.Meal)
	f.Image = nil
	f.ExistingImageURL = deref(review.ImageURL)
}

// Reset returns the form to empty create-mode defaults.
func (f *ReviewForm) Reset() {
	f.EditingID = nil
	f.Name = ""
	f.Rating = 0
	f.Comment = ""
	f.VisitedDate = ""
	f.Quality = 0
	f.Scenery = 0
	f.Cleanliness = 0
	f.Service = 0
	f.Meal = 0
	f.Image = nil
	f.ExistingImageURL = ""
}

// Submit validates the form and hands the assembled review plus the pending
// image file to the store. Concurrent calls beyond the first return
// ErrSubmitInFlight until the active submission finishes. After a
// successful create the draft is reset; edit mode leaves it for the caller.
func (f *ReviewForm) Submit(ctx context.Context) (*Review, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if strings.TrimSpace(f.Name) == "" {
		return nil, ErrNameRequired
	}
	if f.Rating == 0 {
		return nil, ErrRatingRequired
	}

	review := f.build(f.ExistingImageURL)
	if f.EditingID != nil {
		return f.store.Update(ctx, *f.EditingID, review, f.Image)
	}

	created, err := f.store.Add(ctx, review, f.Image)
	if err != nil {
		return nil, err
	}
	f.Reset()
	return created, nil
}

// build converts the raw form fields into the wire shape, coercing empty
// values to nulls.
func (f *ReviewForm) build(imageURL string) *Review {
	return &Review{
		Name:        strings.TrimSpace(f.Name),
		Rating:      f.Rating,
		Comment:     nullableString(f.Comment),
		VisitedDate: nullableString(f.VisitedDate),
		Quality:     nullableRating(f.Quality),
		Scenery:     nullableRating(f.Scenery),
		Cleanliness: nullableRating(f.Cleanliness),
		Service:     nullableRating(f.Service),
		Meal:        nullableRating(f.Meal),
		ImageURL:    nullableString(imageURL),
	}
}

// nullableString maps empty or whitespace-only input to null.
func nullableString(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// nullableRating maps an unset (zero) rating to null.
func nullableRating(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefRating(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
