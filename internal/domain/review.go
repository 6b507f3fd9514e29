package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/Tago-F/onsen-review/pkg/errors"
)

// Rating bounds. The overall rating is mandatory and starts at one star;
// category ratings are optional and may be zero.
const (
	MinRating         = 1.0
	MaxRating         = 5.0
	MinCategoryRating = 0.0
	RatingStep        = 0.5
)

// Allowed content types for review image uploads.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MaxImageSize is the maximum allowed image size in bytes (10 MB).
const MaxImageSize int64 = 10 * 1024 * 1024

// Date is a calendar date serialized as "2006-01-02". A nil *Date field
// marshals to JSON null.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year, month, and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String returns the date in "2006-01-02" form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as a quoted "2006-01-02" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted "2006-01-02" string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Review is a visitor's review of a hot spring. The overall rating is
// required; every other field beyond the name is optional. Optional fields
// are pointers and serialize as explicit JSON nulls so clients always see
// the full shape.
type Review struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Rating      float64   `json:"rating"`
	Comment     *string   `json:"comment"`
	VisitedDate *Date     `json:"visited_date"`
	Quality     *float64  `json:"quality"`
	Scenery     *float64  `json:"scenery"`
	Cleanliness *float64  `json:"cleanliness"`
	Service     *float64  `json:"service"`
	Meal        *float64  `json:"meal"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// isHalfStep reports whether v falls on a 0.5 increment.
func isHalfStep(v float64) bool {
	scaled := v * 2
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}

// Validate checks the review's rating invariants and name presence.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.InvalidInput("name is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating || !isHalfStep(r.Rating) {
		return apperrors.InvalidInput(fmt.Sprintf(
			"rating must be between %.1f and %.1f in %.1f steps", MinRating, MaxRating, RatingStep))
	}

	categories := map[string]*float64{
		"quality":     r.Quality,
		"scenery":     r.Scenery,
		"cleanliness": r.Cleanliness,
		"service":     r.Service,
		"meal":        r.Meal,
	}
	for name, v := range categories {
		if v == nil {
			continue
		}
		if *v < MinCategoryRating || *v > MaxRating || !isHalfStep(*v) {
			return apperrors.InvalidInput(fmt.Sprintf(
				"%s must be between %.1f and %.1f in %.1f steps", name, MinCategoryRating, MaxRating, RatingStep))
		}
	}

	return nil
}

// IsAllowedImageType checks whether the given content type may be uploaded.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[contentType]
}
