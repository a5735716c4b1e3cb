// Package s3 provides a blob.Store backed by Amazon S3 or any S3-compatible
// object storage (MinIO, Localstack, Cubbit DS3, ...).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zotdav/zotdav/pkg/blob"
)

// S3Store implements blob.Store on top of the AWS SDK v2 S3 client.
//
// Key design:
// The store key is used directly as the S3 object key, optionally under a
// configured key prefix. The bucket therefore mirrors the key space the
// gateway serves, which keeps bucket contents human-readable and lets the
// namespace be reconstructed by listing the bucket.
//
// ETags are taken from S3 verbatim with the surrounding quotes stripped, so
// the gateway re-quotes them uniformly across backends.
//
// Thread safety: the S3 client is safe for concurrent use; the store keeps no
// mutable state of its own.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3StoreConfig contains configuration for the S3 blob store.
type S3StoreConfig struct {
	// Client is the configured S3 client (required)
	Client *s3.Client

	// Bucket is the S3 bucket name (required, must already exist)
	Bucket string

	// KeyPrefix is an optional prefix applied to every object key.
	// Example: "zotdav/" results in keys like "zotdav/storage/file.zip".
	KeyPrefix string
}

// NewS3Store creates a new S3-backed blob store and verifies bucket access.
//
// The bucket must already exist; this function does not create it.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a store key.
func (s *S3Store) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

// isNotFound reports whether an S3 error means the object does not exist.
//
// GetObject surfaces missing keys as *types.NoSuchKey while HeadObject
// surfaces them as *types.NotFound, so both must be checked.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// trimETag strips the quotes S3 wraps around ETag values.
func trimETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}

// Get downloads the object at key and returns a reader over its body.
//
// The S3 GetObject call respects context cancellation; if the context is
// cancelled during the download the reader returns an error.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, *blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
		}
		return nil, nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	info := &blob.ObjectInfo{
		Key:  key,
		ETag: trimETag(result.ETag),
	}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.ContentType != nil {
		info.ContentType = *result.ContentType
	}
	if result.LastModified != nil {
		info.LastModified = *result.LastModified
	}

	return result.Body, info, nil
}

// Stat performs a HEAD request to retrieve object metadata without
// downloading the body.
func (s *S3Store) Stat(ctx context.Context, key string) (*blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to head object: %w", err)
	}

	info := &blob.ObjectInfo{
		Key:  key,
		ETag: trimETag(result.ETag),
	}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.ContentType != nil {
		info.ContentType = *result.ContentType
	}
	if result.LastModified != nil {
		info.LastModified = *result.LastModified
	}

	return info, nil
}

// Put uploads the full body to key with a single PutObject call, overwriting
// any previous object.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if key == "" {
		return nil, fmt.Errorf("empty key: %w", blob.ErrInvalidKey)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := s.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to put object to S3: %w", err)
	}

	return &blob.ObjectInfo{
		Key:          key,
		Size:         size,
		ETag:         trimETag(result.ETag),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}, nil
}

// Delete removes the object at key. S3 DeleteObject succeeds for absent keys,
// which matches the store contract.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}

// List returns metadata for every object under prefix using paginated
// ListObjectsV2 calls. S3 yields objects in lexical key order.
func (s *S3Store) List(ctx context.Context, prefix string) ([]blob.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := make([]blob.ObjectInfo, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}

			info := blob.ObjectInfo{
				Key:  strings.TrimPrefix(*obj.Key, s.keyPrefix),
				ETag: trimETag(obj.ETag),
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}

			infos = append(infos, info)
		}
	}

	return infos, nil
}
