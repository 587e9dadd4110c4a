package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocumentType(t *testing.T) {
	assert.True(t, ValidateDocumentType("image/jpeg", "photo.jpg"))
	assert.True(t, ValidateDocumentType("", "vaccination-card.pdf"))
	assert.True(t, ValidateDocumentType("application/pdf", ""))
	assert.True(t, ValidateDocumentType("IMAGE/PNG", "photo.PNG"))

	assert.False(t, ValidateDocumentType("", ""))
	assert.False(t, ValidateDocumentType("video/mp4", "clip.mp4"))
	assert.False(t, ValidateDocumentType("application/zip", "docs.zip"))
}

func TestValidateDocumentSize(t *testing.T) {
	assert.True(t, ValidateDocumentSize(1))
	assert.True(t, ValidateDocumentSize(MaxDocumentSize))

	assert.False(t, ValidateDocumentSize(0))
	assert.False(t, ValidateDocumentSize(-1))
	assert.False(t, ValidateDocumentSize(MaxDocumentSize+1))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("luna.jpeg"))
	assert.Equal(t, "application/pdf", ContentTypeForFilename("ruac.pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("unknown.bin"))
}

func TestDocumentKey(t *testing.T) {
	key := DocumentKey("owner", "pet", "photo", "luna.jpg")
	assert.Equal(t, "documents/owner/pet/photo.jpg", key)
}
