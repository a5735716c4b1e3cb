// Package badger provides a blob.Store backed by BadgerDB, a fast embedded
// key-value store. It is suitable for single-node deployments that need the
// namespace to survive restarts without an external object storage service.
package badger

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/zotdav/zotdav/pkg/blob"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to separate object
// bodies from their metadata records:
//
// Data Type        Prefix   Key Format      Value
// ================================================================
// Object Body      "b:"     b:<key>        raw or zstd-compressed bytes
// Object Metadata  "m:"     m:<key>        objectMeta (JSON)
//
// Body and metadata for one key are always written and deleted in a single
// Badger transaction, preserving the store contract that per-key operations
// are atomic. Prefix listings scan only the "m:" namespace, so a listing
// never loads object bodies.

const (
	bodyPrefix = "b:"
	metaPrefix = "m:"
)

// objectMeta is the JSON metadata record stored alongside each object body.
//
// JSON keeps the records human-readable when inspecting the database and
// tolerates schema evolution; metadata records are small, so encoding cost is
// irrelevant next to the body write.
type objectMeta struct {
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
	Compressed   bool      `json:"compressed,omitempty"`
}

// BadgerStore implements blob.Store on top of a BadgerDB database.
//
// ETags are the hex MD5 of the uncompressed object content, matching the
// convention of single-part S3 uploads so gateway behavior is identical
// across backends.
//
// Thread safety: BadgerDB transactions provide isolation; the store keeps no
// mutable state outside the database and is safe for concurrent use.
type BadgerStore struct {
	db *badger.DB

	// encoder/decoder are nil when compression is disabled
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// BadgerStoreConfig contains configuration for the Badger blob store.
type BadgerStoreConfig struct {
	// Path is the directory holding the Badger database files (required)
	Path string

	// Compression enables zstd compression of object bodies. Metadata
	// records are never compressed. Existing objects remain readable when
	// the setting changes: each metadata record tracks how its body was
	// written.
	Compression bool

	// Logger silences Badger's own logging when nil is passed through;
	// leave unset to use Badger's default logger.
	Logger badger.Logger
}

// NewBadgerStore opens (or creates) a Badger database at the configured path.
//
// The returned store must be closed with Close() to release the database lock
// and flush pending writes.
func NewBadgerStore(ctx context.Context, cfg BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("badger store: path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = cfg.Logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %q: %w", cfg.Path, err)
	}

	store := &BadgerStore{db: db}

	if cfg.Compression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		store.encoder = encoder
		store.decoder = decoder
	}

	return store, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	if s.encoder != nil {
		_ = s.encoder.Close()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
	return s.db.Close()
}

func bodyKey(key string) []byte { return []byte(bodyPrefix + key) }
func metaKey(key string) []byte { return []byte(metaPrefix + key) }

// decompressIfNeeded restores the original body bytes for a stored object.
func (s *BadgerStore) decompressIfNeeded(data []byte, meta *objectMeta) ([]byte, error) {
	if !meta.Compressed {
		return data, nil
	}
	if s.decoder == nil {
		// Object written with compression enabled, store opened without.
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		return decoder.DecodeAll(data, nil)
	}
	return s.decoder.DecodeAll(data, nil)
}

// Get returns a reader over the object at key together with its metadata.
func (s *BadgerStore) Get(ctx context.Context, key string) (io.ReadCloser, *blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var data []byte
	var meta objectMeta

	err := s.db.View(func(txn *badger.Txn) error {
		metaItem, err := txn.Get(metaKey(key))
		if err != nil {
			return err
		}
		if err := metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("failed to decode metadata for %s: %w", key, err)
		}

		bodyItem, err := txn.Get(bodyKey(key))
		if err != nil {
			return err
		}
		data, err = bodyItem.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
		}
		return nil, nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	data, err = s.decompressIfNeeded(data, &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decompress object %s: %w", key, err)
	}

	info := metaToInfo(key, &meta)
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

// Stat returns metadata for the object at key without loading its body.
func (s *BadgerStore) Stat(ctx context.Context, key string) (*blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meta objectMeta

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return metaToInfo(key, &meta), nil
}

// Put writes body and metadata for key in a single transaction, replacing any
// previous object.
func (s *BadgerStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*blob.ObjectInfo, error) {
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
	meta := objectMeta{
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}

	stored := data
	if s.encoder != nil {
		stored = s.encoder.EncodeAll(data, nil)
		meta.Compressed = true
	}

	encodedMeta, err := json.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata for %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(bodyKey(key), stored); err != nil {
			return err
		}
		return txn.Set(metaKey(key), encodedMeta)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write object %s: %w", key, err)
	}

	return metaToInfo(key, &meta), nil
}

// Delete removes body and metadata for key in a single transaction. Absent
// keys are not an error.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(bodyKey(key)); err != nil {
			return err
		}
		return txn.Delete(metaKey(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// List scans the metadata namespace for keys under prefix. Badger iterates in
// lexical key order, so listings are deterministic.
func (s *BadgerStore) List(ctx context.Context, prefix string) ([]blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := make([]blob.ObjectInfo, 0)
	scanPrefix := metaKey(prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(metaPrefix):])

			var meta objectMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("failed to decode metadata for %s: %w", key, err)
			}

			infos = append(infos, *metaToInfo(key, &meta))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, err)
	}

	return infos, nil
}

func metaToInfo(key string, meta *objectMeta) *blob.ObjectInfo {
	return &blob.ObjectInfo{
		Key:          key,
		Size:         meta.Size,
		ETag:         meta.ETag,
		ContentType:  meta.ContentType,
		LastModified: meta.LastModified,
	}
}
