package client

import (
	"context"
	"sync"
)

// ReviewStore keeps an ordered, client-side cache of reviews on top of the
// API. The cache only changes after the server confirms an operation, so a
// failed call always leaves it exactly as it was.
type ReviewStore struct {
	client *Client

	mu        sync.RWMutex
	reviews   []Review
	isLoading bool
	err       error
}

// NewReviewStore creates a store over the given client with an empty cache.
func NewReviewStore(c *Client) *ReviewStore {
	return &ReviewStore{client: c}
}

// Load fetches the full review list and replaces the cache. While the fetch
// is in flight IsLoading reports true; on failure the previous cache is kept
// and Err returns the failure.
func (s *ReviewStore) Load(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.err = nil
	s.mu.Unlock()

	reviews, err := s.client.ListReviews(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false
	if err != nil {
		s.err = err
		return err
	}
	s.reviews = reviews
	return nil
}

// Add uploads the image if one was given, merges the resulting URL into the
// review, creates it on the server, then appends the stored version to the
// cache. A failure at any step leaves the cache unchanged.
func (s *ReviewStore) Add(ctx context.Context, review *Review, file *ImageFile) (*Review, error) {
	imageURL, err := s.client.UploadImage(ctx, file)
	if err != nil {
		return nil, err
	}
	if imageURL != "" {
		review.ImageURL = &imageURL
	}

	created, err := s.client.CreateReview(ctx, review)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, *created)
	return created, nil
}

// Update uploads a replacement image when file is set, otherwise keeps the
// image URL already on the review. The full record goes to the server, then
// the cached entry is swapped in place, preserving order.
func (s *ReviewStore) Update(ctx context.Context, id int64, review *Review, file *ImageFile) (*Review, error) {
	if file != nil {
		imageURL, err := s.client.UploadImage(ctx, file)
		if err != nil {
			return nil, err
		}
		review.ImageURL = &imageURL
	}

	updated, err := s.client.UpdateReview(ctx, id, review)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			s.reviews[i] = *updated
			break
		}
	}
	return updated, nil
}

// Delete removes the review on the server, then drops it from the cache.
func (s *ReviewStore) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteReview(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			break
		}
	}
	return nil
}

// Reviews returns a copy of the cached reviews in order.
func (s *ReviewStore) Reviews() []Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

// IsLoading reports whether a Load is in flight.
func (s *ReviewStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Err returns the error from the most recent Load, or nil.
func (s *ReviewStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
