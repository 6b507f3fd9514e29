package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tago-F/onsen-review/internal/domain"
	"github.com/Tago-F/onsen-review/internal/event"
	"github.com/Tago-F/onsen-review/internal/repository"
	"github.com/Tago-F/onsen-review/internal/storage"
	apperrors "github.com/Tago-F/onsen-review/pkg/errors"
)

// listCacheKey holds the serialized review list before SAS stamping, so
// cached entries never contain expiring tokens.
const listCacheKey = "reviews:list"

// listCacheTTL keeps the cache well below the read SAS expiry window.
const listCacheTTL = 60 * time.Second

// Cache is the subset of Redis used by the review service.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisCache adapts a go-redis client to the Cache interface.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps the given Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// ReviewService implements the review use cases: CRUD over the repository,
// list caching, read-URL signing, and domain event publication.
type ReviewService struct {
	repo      repository.ReviewRepository
	signer    storage.Signer
	cache     Cache
	publisher event.Publisher
	logger    *slog.Logger
}

// NewReviewService wires the review service. Cache and publisher may be nil
// in tests; both are degraded gracefully at runtime too.
func NewReviewService(
	repo repository.ReviewRepository,
	signer storage.Signer,
	cache Cache,
	publisher event.Publisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:      repo,
		signer:    signer,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// ListReviews returns all reviews, newest first, with read SAS tokens
// stamped onto stored image URLs. The unstamped list is cached; tokens are
// always issued fresh per response.
func (s *ReviewService) ListReviews(ctx context.Context) ([]domain.Review, error) {
	reviews, ok := s.cachedList(ctx)
	if !ok {
		var err error
		reviews, err = s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		s.storeList(ctx, reviews)
	}

	for i := range reviews {
		if err := s.stampReadURL(ctx, &reviews[i]); err != nil {
			return nil, err
		}
	}
	return reviews, nil
}

// GetReview returns one review with a signed image URL.
func (s *ReviewService) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.stampReadURL(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// CreateReview validates and persists a new review, then invalidates the
// list cache and publishes review.created. The returned review carries the
// generated ID; its image URL stays unsigned so the caller sees exactly
// what was stored.
func (s *ReviewService) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.invalidateList(ctx)
	s.publish(ctx, func() error { return s.publisher.PublishReviewCreated(ctx, review) })

	return review, nil
}

// UpdateReview validates and persists changes to an existing review. Every
// mutable field is replaced, so omitting an optional field clears it.
func (s *ReviewService) UpdateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}

	s.invalidateList(ctx)
	s.publish(ctx, func() error { return s.publisher.PublishReviewUpdated(ctx, review) })

	return review, nil
}

// DeleteReview removes a review. The blob behind its image URL is left in
// place; orphaned blobs are reclaimed out of band.
func (s *ReviewService) DeleteReview(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateList(ctx)
	s.publish(ctx, func() error { return s.publisher.PublishReviewDeleted(ctx, id) })

	return nil
}

// RequestUploadURL issues a short-lived writable SAS URL for a new image
// blob named after fileName's extension.
func (s *ReviewService) RequestUploadURL(ctx context.Context, fileName string) (*storage.UploadTicket, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, apperrors.InvalidInput("fileName is required")
	}
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); !domain.IsAllowedImageType(ct) {
		return nil, apperrors.InvalidInput("unsupported image type")
	}

	ticket, err := s.signer.IssueUploadURL(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("issue upload url: %w", err)
	}
	return ticket, nil
}

// stampReadURL replaces the stored image URL with a signed read URL.
func (s *ReviewService) stampReadURL(ctx context.Context, review *domain.Review) error {
	if review.ImageURL == nil || *review.ImageURL == "" {
		return nil
	}
	signed, err := s.signer.SignReadURL(ctx, *review.ImageURL)
	if err != nil {
		return fmt.Errorf("sign read url for review %d: %w", review.ID, err)
	}
	review.ImageURL = &signed
	return nil
}

// cachedList returns the cached review list if present and decodable.
func (s *ReviewService) cachedList(ctx context.Context) ([]domain.Review, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, listCacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WarnContext(ctx, "review list cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var reviews []domain.Review
	if err := json.Unmarshal([]byte(raw), &reviews); err != nil {
		s.logger.WarnContext(ctx, "review list cache corrupt, dropping", slog.String("error", err.Error()))
		_ = s.cache.Del(ctx, listCacheKey)
		return nil, false
	}
	return reviews, true
}

// storeList caches the unstamped review list. Failures are logged only;
// the cache is an optimization, not a dependency.
func (s *ReviewService) storeList(ctx context.Context, reviews []domain.Review) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(reviews)
	if err != nil {
		s.logger.WarnContext(ctx, "review list cache encode failed", slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, listCacheKey, string(raw), listCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "review list cache write failed", slog.String("error", err.Error()))
	}
}

func (s *ReviewService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey); err != nil {
		s.logger.WarnContext(ctx, "review list cache invalidation failed", slog.String("error", err.Error()))
	}
}

// publish runs an event publication, logging failures instead of failing
// the request. The write already committed; events are best effort.
func (s *ReviewService) publish(ctx context.Context, fn func() error) {
	if s.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "event publication failed", slog.String("error", err.Error()))
	}
}
