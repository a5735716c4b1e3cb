// Package blob defines the flat key-addressed object store that the WebDAV
// gateway translates onto.
//
// The store holds only key→byte-sequence entries. There is no directory
// concept: hierarchy is an illusion the gateway reconstructs at query time
// from key prefixes. Keys are namespace-relative, `/`-separated strings with
// no leading slash (e.g. "storage/attachments/ABCD1234.zip").
//
// Three implementations are provided:
//   - s3: Amazon S3 or any S3-compatible endpoint (MinIO, Localstack, ...)
//   - badger: local persistent storage on BadgerDB
//   - memory: in-memory map, for tests and development
package blob

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a single stored object.
//
// ETag is an opaque content fingerprint assigned by the store; it changes only
// on a full overwrite of the key. LastModified is the time of the last write
// as recorded by the store.
type ObjectInfo struct {
	// Key is the store key the object lives at
	Key string

	// Size is the object length in bytes
	Size int64

	// ETag is the store-assigned content fingerprint, without surrounding quotes
	ETag string

	// ContentType is the media type recorded at write time (may be empty)
	ContentType string

	// LastModified is the time of the last full write to this key
	LastModified time.Time
}

// Store is the contract every blob store backend implements.
//
// All operations are atomic at the single-key level. The store offers no
// transaction spanning multiple keys: callers composing multi-step operations
// (such as a copy-then-delete rename emulation) accept the intermediate states
// that interleaved requests can observe.
//
// Every method takes a context as its first argument and respects
// cancellation. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a reader over the object at key together with its metadata.
	// The caller must close the reader. Returns ErrObjectNotFound (wrapped)
	// if no object exists at the key.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// Stat returns metadata for the object at key without fetching its body.
	// Returns ErrObjectNotFound (wrapped) if no object exists at the key.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Put writes the full object at key, overwriting any previous content.
	// size is the exact body length in bytes; contentType may be empty.
	// Returns the metadata of the stored object, including its new ETag.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// Delete removes the object at key. Deleting a key that holds no object
	// is not an error.
	Delete(ctx context.Context, key string) error

	// List returns metadata for every object whose key starts with prefix,
	// in the order the backend yields them. An empty prefix lists the whole
	// store. A prefix with no matches returns an empty slice, not an error.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
