// Package memory provides an in-memory blob.Store implementation.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/zotdav/zotdav/pkg/blob"
)

// MemoryStore implements blob.Store using an in-memory map.
//
// It is intended for tests and development deployments. All data is lost when
// the process exits.
//
// ETags are the hex MD5 of the object content, matching the convention of
// single-part S3 uploads so that gateway behavior is identical across
// backends.
//
// Thread safety: all operations are guarded by a sync.RWMutex. Object bodies
// are copied on write and on read, so callers never share backing arrays with
// the store.
type MemoryStore struct {
	// objects maps key to stored object
	objects map[string]memoryObject

	// mu protects concurrent access to objects
	mu sync.RWMutex
}

type memoryObject struct {
	data []byte
	info blob.ObjectInfo
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore(ctx context.Context) (*MemoryStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryStore{
		objects: make(map[string]memoryObject),
	}, nil
}

// Get returns a reader over a copy of the object at key together with its
// metadata. Closing the returned reader is a no-op.
func (s *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, *blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
	}

	dataCopy := make([]byte, len(obj.data))
	copy(dataCopy, obj.data)

	info := obj.info
	return io.NopCloser(bytes.NewReader(dataCopy)), &info, nil
}

// Stat returns metadata for the object at key.
func (s *MemoryStore) Stat(ctx context.Context, key string) (*blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
	}

	info := obj.info
	return &info, nil
}

// Put stores the full body at key, replacing any previous object.
func (s *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if key == "" {
		return nil, fmt.Errorf("empty key: %w", blob.ErrInvalidKey)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	if size >= 0 && int64(len(data)) != size {
		return nil, fmt.Errorf("body length %d does not match declared size %d", len(data), size)
	}

	sum := md5.Sum(data)
	info := blob.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = memoryObject{data: data, info: info}

	infoCopy := info
	return &infoCopy, nil
}

// Delete removes the object at key. Absent keys are not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// List returns metadata for every object whose key starts with prefix.
//
// Map iteration order is not deterministic; callers needing a stable order
// must sort the result themselves.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]blob.ObjectInfo, 0)
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, obj.info)
		}
	}

	return infos, nil
}
