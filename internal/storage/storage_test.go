package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlobName_PreservesExtension(t *testing.T) {
	name := NewBlobName("rotenburo photo.JPG")
	assert.True(t, strings.HasSuffix(name, ".JPG"))

	base := strings.TrimSuffix(name, ".JPG")
	_, err := uuid.Parse(base)
	require.NoError(t, err, "blob name base should be a UUID")
}

func TestNewBlobName_NoExtension(t *testing.T) {
	name := NewBlobName("photo")
	_, err := uuid.Parse(name)
	require.NoError(t, err)
}

func TestNewBlobName_Unique(t *testing.T) {
	assert.NotEqual(t, NewBlobName("a.png"), NewBlobName("a.png"))
}
