package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBlobStore_Memory(t *testing.T) {
	store, err := CreateBlobStore(context.Background(), &StoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestCreateBlobStore_Badger(t *testing.T) {
	store, err := CreateBlobStore(context.Background(), &StoreConfig{
		Type:   "badger",
		Badger: map[string]any{"path": t.TempDir()},
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestCreateBlobStore_BadgerMissingPath(t *testing.T) {
	_, err := CreateBlobStore(context.Background(), &StoreConfig{
		Type:   "badger",
		Badger: map[string]any{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestCreateBlobStore_S3MissingOptions(t *testing.T) {
	// Option validation happens before any AWS call, so these fail fast
	// without network access.
	_, err := CreateBlobStore(context.Background(), &StoreConfig{
		Type: "s3",
		S3:   map[string]any{"region": "eu-west-1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	_, err = CreateBlobStore(context.Background(), &StoreConfig{
		Type: "s3",
		S3:   map[string]any{"bucket": "zotdav"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region is required")
}

func TestCreateBlobStore_UnknownType(t *testing.T) {
	_, err := CreateBlobStore(context.Background(), &StoreConfig{Type: "tape"})
	assert.Error(t, err)
}
