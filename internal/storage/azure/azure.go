package azure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/Tago-F/onsen-review/internal/storage"
)

// Config holds Azure Blob Storage signer configuration.
type Config struct {
	AccountName string
	AccountKey  string
	Container   string

	// WriteExpiry bounds how long an issued upload URL stays valid.
	WriteExpiry time.Duration

	// ReadExpiry bounds how long stamped read URLs stay valid.
	ReadExpiry time.Duration
}

// DefaultConfig returns the standard expiry windows: short for writes,
// longer for reads so list responses stay usable for a while.
func DefaultConfig(accountName, accountKey, container string) Config {
	return Config{
		AccountName: accountName,
		AccountKey:  accountKey,
		Container:   container,
		WriteExpiry: 10 * time.Minute,
		ReadExpiry:  60 * time.Minute,
	}
}

// Signer issues SAS URLs against an Azure Blob Storage account using a
// shared key credential.
type Signer struct {
	cfg     Config
	cred    *azblob.SharedKeyCredential
	baseURL string
}

// NewSigner creates an Azure-backed signer.
func NewSigner(cfg Config) (*Signer, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	return &Signer{
		cfg:     cfg,
		cred:    cred,
		baseURL: fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName),
	}, nil
}

// IssueUploadURL generates a new blob name from fileName and returns a
// writable SAS URL for it alongside the permanent blob URL.
func (s *Signer) IssueUploadURL(_ context.Context, fileName string) (*storage.UploadTicket, error) {
	blobName := storage.NewBlobName(fileName)

	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		ExpiryTime:    time.Now().UTC().Add(s.cfg.WriteExpiry),
		Permissions:   (&sas.BlobPermissions{Create: true, Write: true}).String(),
		ContainerName: s.cfg.Container,
		BlobName:      blobName,
	}

	qp, err := values.SignWithSharedKey(s.cred)
	if err != nil {
		return nil, fmt.Errorf("sign upload url for %s: %w", blobName, err)
	}

	blobURL := fmt.Sprintf("%s/%s/%s", s.baseURL, s.cfg.Container, blobName)
	return &storage.UploadTicket{
		SASURL:  blobURL + "?" + qp.Encode(),
		BlobURL: blobURL,
	}, nil
}

// SignReadURL stamps a read-only SAS token onto a blob URL from this
// account. Foreign URLs pass through untouched so externally hosted images
// keep working.
func (s *Signer) SignReadURL(_ context.Context, blobURL string) (string, error) {
	if !strings.HasPrefix(blobURL, s.baseURL+"/") {
		return blobURL, nil
	}

	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", fmt.Errorf("parse blob url: %w", err)
	}

	container, blobName, ok := splitBlobPath(parsed.Path)
	if !ok {
		return "", fmt.Errorf("blob url %q has no container/blob path", blobURL)
	}

	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		ExpiryTime:    time.Now().UTC().Add(s.cfg.ReadExpiry),
		Permissions:   (&sas.BlobPermissions{Read: true}).String(),
		ContainerName: container,
		BlobName:      blobName,
	}

	qp, err := values.SignWithSharedKey(s.cred)
	if err != nil {
		return "", fmt.Errorf("sign read url for %s: %w", blobName, err)
	}

	return blobURL + "?" + qp.Encode(), nil
}

// splitBlobPath splits "/container/path/to/blob" into its container and
// blob name parts.
func splitBlobPath(p string) (container, blob string, ok bool) {
	trimmed := strings.TrimPrefix(p, "/")
	container, blob, found := strings.Cut(trimmed, "/")
	if !found || container == "" || blob == "" {
		return "", "", false
	}
	return container, blob, true
}
