package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tago-F/onsen-review/pkg/httpclient"
)

// Review is the wire representation of a hot spring review. Optional fields
// are pointers and serialize as explicit JSON nulls, matching the server.
type Review struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Rating      float64  `json:"rating"`
	Comment     *string  `json:"comment"`
	VisitedDate *string  `json:"visited_date"`
	Quality     *float64 `json:"quality"`
	Scenery     *float64 `json:"scenery"`
	Cleanliness *float64 `json:"cleanliness"`
	Service     *float64 `json:"service"`
	Meal        *float64 `json:"meal"`
	ImageURL    *string  `json:"image_url"`
}

// UploadTicket is the server's response to an upload URL request.
type UploadTicket struct {
	SASURL  string `json:"sasUrl"`
	BlobURL string `json:"blobUrl"`
}

// Client exposes typed operations over the review API.
type Client struct {
	transport *Transport
	uploader  *Uploader
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	doer    Doer
	upDoer  Doer
	logger  *slog.Logger
	breaker *httpclient.CircuitBreakerConfig
}

// WithDoer sets the HTTP client used for API requests.
func WithDoer(d Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithUploadDoer sets the HTTP client used for blob PUTs.
func WithUploadDoer(d Doer) Option {
	return func(o *options) { o.upDoer = d }
}

// WithLogger sets the logger for transport and upload diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCircuitBreaker protects API requests with a circuit breaker. While
// the breaker is open, calls fail fast with httpclient.ErrCircuitOpen
// instead of a RequestError. Ignored when a custom Doer is set.
func WithCircuitBreaker(cfg httpclient.CircuitBreakerConfig) Option {
	return func(o *options) { o.breaker = &cfg }
}

// New creates a review API client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.doer == nil && o.breaker != nil {
		cfg := httpclient.DefaultConfig()
		cfg.MaxRetries = 0
		l := o.logger
		if l == nil {
			l = slog.Default()
		}
		o.doer = httpclient.NewCircuitBreakerClient(httpclient.New(cfg), *o.breaker, l)
	}

	transport := NewTransport(baseURL, o.doer, o.logger)
	c := &Client{transport: transport}
	c.uploader = NewUploader(c, o.upDoer, o.logger)
	return c
}

// ListReviews fetches all reviews, newest first. Stored image URLs arrive
// pre-signed for reading.
func (c *Client) ListReviews(ctx context.Context) ([]Review, error) {
	raw, err := c.transport.Request(ctx, http.MethodGet, "/reviews", nil)
	if err != nil {
		return nil, err
	}

	var reviews []Review
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return nil, fmt.Errorf("decode review list: %w", err)
	}
	return reviews, nil
}

// GetReview fetches a single review by ID.
func (c *Client) GetReview(ctx context.Context, id int64) (*Review, error) {
	raw, err := c.transport.Request(ctx, http.MethodGet, fmt.Sprintf("/reviews/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var review Review
	if err := json.Unmarshal(raw, &review); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	return &review, nil
}

// CreateReview submits a new review and returns the stored version with its
// server-assigned ID.
func (c *Client) CreateReview(ctx context.Context, review *Review) (*Review, error) {
	raw, err := c.transport.Request(ctx, http.MethodPost, "/reviews", review)
	if err != nil {
		return nil, err
	}

	var created Review
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode created review: %w", err)
	}
	return &created, nil
}

// UpdateReview replaces an existing review. Optional fields left nil are
// cleared server-side.
func (c *Client) UpdateReview(ctx context.Context, id int64, review *Review) (*Review, error) {
	raw, err := c.transport.Request(ctx, http.MethodPut, fmt.Sprintf("/reviews/%d", id), review)
	if err != nil {
		return nil, err
	}

	var updated Review
	if err := json.Unmarshal(raw, &updated); err != nil {
		return nil, fmt.Errorf("decode updated review: %w", err)
	}
	return &updated, nil
}

// DeleteReview removes a review by ID.
func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	_, err := c.transport.Request(ctx, http.MethodDelete, fmt.Sprintf("/reviews/%d", id), nil)
	return err
}

// RequestUploadURL asks the server for a writable SAS URL for fileName.
func (c *Client) RequestUploadURL(ctx context.Context, fileName string) (*UploadTicket, error) {
	raw, err := c.transport.Request(ctx, http.MethodPost, "/storage/generate-upload-url",
		map[string]string{"fileName": fileName})
	if err != nil {
		return nil, err
	}

	var ticket UploadTicket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, fmt.Errorf("decode upload ticket: %w", err)
	}
	return &ticket, nil
}

// UploadImage uploads an image and returns its permanent blob URL. A nil
// file skips the network entirely and returns an empty URL.
func (c *Client) UploadImage(ctx context.Context, file *ImageFile) (string, error) {
	return c.uploader.Upload(ctx, file)
}
