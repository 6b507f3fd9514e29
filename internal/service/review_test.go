package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tago-F/onsen-review/internal/domain"
	"github.com/Tago-F/onsen-review/internal/storage"
	"github.com/Tago-F/onsen-review/internal/storage/memory"
	apperrors "github.com/Tago-F/onsen-review/pkg/errors"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeRepo struct {
	reviews   []domain.Review
	nextID    int64
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	listCalls int
}

func (f *fakeRepo) List(_ context.Context) ([]domain.Review, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Review, len(f.reviews))
	copy(out, f.reviews)
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	for _, r := range f.reviews {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("review", "x")
}

func (f *fakeRepo) Create(_ context.Context, review *domain.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	review.ID = f.nextID
	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, review *domain.Review) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, r := range f.reviews {
		if r.ID == review.ID {
			f.reviews[i] = *review
			return nil
		}
	}
	return apperrors.NotFound("review", "x")
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.reviews {
		if r.ID == id {
			f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("review", "x")
}

type fakeCache struct {
	data map[string]string
	dels int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.dels++
	delete(c.data, key)
	return nil
}

type recordingPublisher struct {
	created []int64
	updated []int64
	deleted []int64
	err     error
}

func (p *recordingPublisher) PublishReviewCreated(_ context.Context, r *domain.Review) error {
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, r.ID)
	return nil
}

func (p *recordingPublisher) PublishReviewUpdated(_ context.Context, r *domain.Review) error {
	if p.err != nil {
		return p.err
	}
	p.updated = append(p.updated, r.ID)
	return nil
}

func (p *recordingPublisher) PublishReviewDeleted(_ context.Context, id int64) error {
	if p.err != nil {
		return p.err
	}
	p.deleted = append(p.deleted, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

const signerBase = "https://devstore.blob.core.windows.net/onsenreview-images"

func newService(repo *fakeRepo, cache Cache, pub *recordingPublisher) (*ReviewService, *memory.Signer) {
	signer := memory.New(signerBase)
	return NewReviewService(repo, signer, cache, pub, quietLogger()), signer
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestCreateReview_AssignsIDAndPublishes(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	pub := &recordingPublisher{}
	svc, _ := newService(repo, cache, pub)

	created, err := svc.CreateReview(context.Background(), &domain.Review{Name: "Kusatsu", Rating: 4.5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, []int64{1}, pub.created)
	assert.Equal(t, 1, cache.dels, "cache must be invalidated on create")
}

func TestCreateReview_ValidationFailureLeavesRepoUntouched(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newService(repo, newFakeCache(), &recordingPublisher{})

	_, err := svc.CreateReview(context.Background(), &domain.Review{Name: "", Rating: 4.5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Empty(t, repo.reviews)
}

func TestCreateReview_PublishFailureDoesNotFailRequest(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newService(repo, newFakeCache(), pub)

	created, err := svc.CreateReview(context.Background(), &domain.Review{Name: "Beppu", Rating: 3.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestListReviews_StampsSignedURLs(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{
		{ID: 1, Name: "Kusatsu", Rating: 4.5, ImageURL: ptr(signerBase + "/img1.jpg")},
		{ID: 2, Name: "Beppu", Rating: 3.5},
	}}
	svc, _ := newService(repo, newFakeCache(), &recordingPublisher{})

	reviews, err := svc.ListReviews(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Contains(t, *reviews[0].ImageURL, "sig=fake-read-token")
	assert.Nil(t, reviews[1].ImageURL)
}

func TestListReviews_CachesUnstampedList(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{
		{ID: 1, Name: "Kusatsu", Rating: 4.5, ImageURL: ptr(signerBase + "/img1.jpg")},
	}}
	cache := newFakeCache()
	svc, _ := newService(repo, cache, &recordingPublisher{})

	_, err := svc.ListReviews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// Cached value holds the raw blob URL, not a signed one.
	var cached []domain.Review
	require.NoError(t, json.Unmarshal([]byte(cache.data["reviews:list"]), &cached))
	assert.Equal(t, signerBase+"/img1.jpg", *cached[0].ImageURL)

	// Second call is served from cache but still gets a fresh token.
	reviews, err := svc.ListReviews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "second list should hit the cache")
	assert.Contains(t, *reviews[0].ImageURL, "sig=fake-read-token")
}

func TestListReviews_CorruptCacheFallsBack(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{{ID: 1, Name: "Kusatsu", Rating: 4.0}}}
	cache := newFakeCache()
	cache.data["reviews:list"] = "{not json"
	svc, _ := newService(repo, cache, &recordingPublisher{})

	reviews, err := svc.ListReviews(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestGetReview_StampsSignedURL(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{
		{ID: 9, Name: "Kinosaki", Rating: 4.0, ImageURL: ptr(signerBase + "/img9.jpg")},
	}}
	svc, _ := newService(repo, newFakeCache(), &recordingPublisher{})

	review, err := svc.GetReview(context.Background(), 9)
	require.NoError(t, err)
	assert.Contains(t, *review.ImageURL, "sig=fake-read-token")

	_, err = svc.GetReview(context.Background(), 404)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateReview_InvalidatesCacheAndPublishes(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{{ID: 5, Name: "Old", Rating: 2.0}}, nextID: 5}
	cache := newFakeCache()
	pub := &recordingPublisher{}
	svc, _ := newService(repo, cache, pub)

	updated, err := svc.UpdateReview(context.Background(), &domain.Review{ID: 5, Name: "New", Rating: 4.0})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, []int64{5}, pub.updated)
	assert.Equal(t, 1, cache.dels)
}

func TestUpdateReview_RepoFailureSkipsSideEffects(t *testing.T) {
	repo := &fakeRepo{updateErr: errors.New("db down")}
	cache := newFakeCache()
	pub := &recordingPublisher{}
	svc, _ := newService(repo, cache, pub)

	_, err := svc.UpdateReview(context.Background(), &domain.Review{ID: 1, Name: "X", Rating: 3.0})
	require.Error(t, err)
	assert.Empty(t, pub.updated)
	assert.Zero(t, cache.dels)
}

func TestDeleteReview(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{{ID: 3, Name: "Noboribetsu", Rating: 5.0}}}
	pub := &recordingPublisher{}
	svc, _ := newService(repo, newFakeCache(), pub)

	require.NoError(t, svc.DeleteReview(context.Background(), 3))
	assert.Empty(t, repo.reviews)
	assert.Equal(t, []int64{3}, pub.deleted)
}

func TestDeleteReview_NotFound(t *testing.T) {
	svc, _ := newService(&fakeRepo{}, newFakeCache(), &recordingPublisher{})
	err := svc.DeleteReview(context.Background(), 404)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRequestUploadURL(t *testing.T) {
	svc, _ := newService(&fakeRepo{}, newFakeCache(), &recordingPublisher{})

	ticket, err := svc.RequestUploadURL(context.Background(), "photo.png")
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.SASURL)
	assert.NotContains(t, ticket.BlobURL, "?")
}

func TestRequestUploadURL_EmptyFileName(t *testing.T) {
	svc, _ := newService(&fakeRepo{}, newFakeCache(), &recordingPublisher{})

	_, err := svc.RequestUploadURL(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRequestUploadURL_UnsupportedType(t *testing.T) {
	svc, _ := newService(&fakeRepo{}, newFakeCache(), &recordingPublisher{})

	for _, name := range []string{"report.pdf", "noextension"} {
		_, err := svc.RequestUploadURL(context.Background(), name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
}

var _ storage.Signer = (*memory.Signer)(nil)
