package storage

import (
	"context"
	"path"

	"github.com/google/uuid"
)

// Signer issues time-limited URLs for direct-to-blob image uploads and reads.
// Clients PUT image bytes straight to the SAS URL; the API never proxies the
// file contents.
type Signer interface {
	// IssueUploadURL returns a short-lived writable SAS URL and the
	// permanent blob URL for a new blob derived from fileName.
	IssueUploadURL(ctx context.Context, fileName string) (*UploadTicket, error)

	// SignReadURL stamps a read-only SAS token onto a stored blob URL.
	// URLs pointing outside the signer's account are returned unchanged.
	SignReadURL(ctx context.Context, blobURL string) (string, error)
}

// UploadTicket is the pair of URLs returned to a client that wants to
// upload an image.
type UploadTicket struct {
	// SASURL is the writable URL the client PUTs the image bytes to.
	// It expires after a few minutes.
	SASURL string `json:"sasUrl"`

	// BlobURL is the permanent, unsigned URL stored on the review.
	BlobURL string `json:"blobUrl"`
}

// NewBlobName generates a collision-free blob name for an upload,
// preserving the original file extension so content sniffing keeps working.
func NewBlobName(fileName string) string {
	return uuid.New().String() + path.Ext(fileName)
}
