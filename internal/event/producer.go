package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Tago-F/onsen-review/internal/domain"
	pkgkafka "github.com/Tago-F/onsen-review/pkg/kafka"
)

// Kafka topics for review domain events.
const (
	TopicReviewCreated = "onsen.review.created"
	TopicReviewUpdated = "onsen.review.updated"
	TopicReviewDeleted = "onsen.review.deleted"
)

// Source identifier for events originating from this service.
const SourceReviewAPI = "review-api"

// Publisher is the event interface the service layer depends on. The
// Kafka-backed Producer implements it; tests substitute a recorder.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewUpdated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, id int64) error
}

// ReviewPayload is the payload carried by created and updated events. The
// image URL is the permanent blob URL, never a signed one.
type ReviewPayload struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	ImageURL *string `json:"image_url"`
}

// ReviewDeletedPayload is the payload for a review.deleted event.
type ReviewDeletedPayload struct {
	ID int64 `json:"id"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the review API.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewCreated, review)
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewUpdated, review)
}

func (p *Producer) publishReview(ctx context.Context, topic string, review *domain.Review) error {
	payload := ReviewPayload{
		ID:       review.ID,
		Name:     review.Name,
		Rating:   review.Rating,
		ImageURL: review.ImageURL,
	}

	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(review.ID, 10), SourceReviewAPI, payload)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.Int64("review_id", review.ID),
	)

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, id int64) error {
	event, err := pkgkafka.NewEvent(TopicReviewDeleted, strconv.FormatInt(id, 10), SourceReviewAPI, ReviewDeletedPayload{ID: id})
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", TopicReviewDeleted),
		slog.Int64("review_id", id),
	)

	return nil
}
