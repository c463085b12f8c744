package services

import (
	"context"
	"testing"

	"opsflow/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageService_Disabled(t *testing.T) {
	service, err := NewStorageService(context.Background(), config.Config{
		StoragePublicBaseURL: "https://storage.googleapis.com/",
	})
	require.NoError(t, err)

	assert.False(t, service.Enabled())

	url, err := service.Upload(context.Background(), "quotes", "q.pdf", "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.Empty(t, url)
	assert.NoError(t, service.Close())
}

func TestStorageService_PublicURL(t *testing.T) {
	service, err := NewStorageService(context.Background(), config.Config{
		StoragePublicBaseURL: "https://storage.googleapis.com/",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://storage.googleapis.com/quotes/2025/DEV-001.pdf",
		service.PublicURL("quotes", "/2025/DEV-001.pdf"),
	)
}
