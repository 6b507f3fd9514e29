package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Tago-F/onsen-review/internal/domain"
	"github.com/Tago-F/onsen-review/pkg/httpclient"
)

// ImageFile is an image to upload alongside a review.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ErrImageTooLarge is returned before any network traffic when the image
// exceeds the server's size limit.
var ErrImageTooLarge = errors.New("image exceeds maximum upload size")

// ErrUnsupportedImageType is returned before any network traffic when the
// declared content type is not an accepted image format.
var ErrUnsupportedImageType = errors.New("unsupported image content type")

// UploadError is returned when the blob PUT itself fails, as opposed to the
// upload URL request. The SAS URL has already been issued at that point; the
// unused blob slot is simply abandoned.
type UploadError struct {
	Status  int
	BlobURL string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed with status %d", e.Status)
}

// Uploader performs the two-phase image upload: request a writable SAS URL
// from the API, then PUT the raw bytes directly to blob storage.
type Uploader struct {
	client *Client
	doer   Doer
	logger *slog.Logger
}

// NewUploader creates an uploader. A nil doer gets a default HTTP client
// without retries; blob PUTs are not safely repeatable mid-stream.
func NewUploader(c *Client, doer Doer, logger *slog.Logger) *Uploader {
	if doer == nil {
		cfg := httpclient.DefaultConfig()
		cfg.MaxRetries = 0
		doer = httpclient.New(cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		client: c,
		doer:   doer,
		logger: logger,
	}
}

// Upload sends the image to blob storage and returns its permanent URL.
// A nil file returns an empty URL without any network traffic.
func (u *Uploader) Upload(ctx context.Context, file *ImageFile) (string, error) {
	if file == nil {
		return "", nil
	}
	if int64(len(file.Data)) > domain.MaxImageSize {
		return "", ErrImageTooLarge
	}
	if file.ContentType != "" && !domain.IsAllowedImageType(file.ContentType) {
		return "", ErrUnsupportedImageType
	}

	ticket, err := u.client.RequestUploadURL(ctx, file.Name)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.SASURL, bytes.NewReader(file.Data))
	if err != nil {
		return "", fmt.Errorf("create blob request: %w", err)
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	if file.ContentType != "" {
		req.Header.Set("Content-Type", file.ContentType)
	}

	resp, err := u.doer.Do(ctx, req)
	if err != nil {
		u.logger.ErrorContext(ctx, "blob upload failed",
			slog.String("blob_url", ticket.BlobURL),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		u.logger.ErrorContext(ctx, "blob upload rejected",
			slog.String("blob_url", ticket.BlobURL),
			slog.Int("status", resp.StatusCode),
		)
		return "", &UploadError{Status: resp.StatusCode, BlobURL: ticket.BlobURL}
	}

	return ticket.BlobURL, nil
}
