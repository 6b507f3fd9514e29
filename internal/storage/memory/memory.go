package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Tago-F/onsen-review/internal/storage"
)

// Signer implements storage.Signer with deterministic fake tokens. It is
// used in tests and local development where no Azure account exists.
type Signer struct {
	mu      sync.Mutex
	baseURL string
	issued  []string
}

// New creates an in-memory signer rooted at baseURL,
// e.g. "https://devstore.blob.core.windows.net/onsenreview-images".
func New(baseURL string) *Signer {
	return &Signer{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// IssueUploadURL returns a fake writable URL with a recognizable token.
func (s *Signer) IssueUploadURL(_ context.Context, fileName string) (*storage.UploadTicket, error) {
	blobName := storage.NewBlobName(fileName)
	blobURL := fmt.Sprintf("%s/%s", s.baseURL, blobName)

	s.mu.Lock()
	s.issued = append(s.issued, blobName)
	s.mu.Unlock()

	return &storage.UploadTicket{
		SASURL:  blobURL + "?sig=fake-write-token",
		BlobURL: blobURL,
	}, nil
}

// SignReadURL appends a fake read token to URLs under this signer's base.
func (s *Signer) SignReadURL(_ context.Context, blobURL string) (string, error) {
	if !strings.HasPrefix(blobURL, s.baseURL+"/") {
		return blobURL, nil
	}
	return blobURL + "?sig=fake-read-token", nil
}

// IssuedBlobNames returns the blob names handed out so far.
func (s *Signer) IssuedBlobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.issued...)
}
