package webdav

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/zotdav/zotdav/internal/logger"
	"github.com/zotdav/zotdav/pkg/blob"
)

// handleGet streams the object at key to the client.
func (g *Gateway) handleGet(w http.ResponseWriter, r *http.Request, key string) {
	reader, info, err := g.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		g.storeError(w, r, err)
		return
	}
	defer func() { _ = reader.Close() }()

	writeObjectHeaders(w, info)
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, reader)
	if err != nil {
		// Headers are out; nothing left to report to the client.
		g.logError(r, err)
	}
	g.metrics.RecordBytesTransferred("read", written)
}

// handleHead reports the object's headers without a body. Stat avoids
// fetching the body at all on backends where that matters (S3 HEAD).
func (g *Gateway) handleHead(w http.ResponseWriter, r *http.Request, key string) {
	info, err := g.store.Stat(r.Context(), key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		g.storeError(w, r, err)
		return
	}

	writeObjectHeaders(w, info)
	w.WriteHeader(http.StatusOK)
}

func writeObjectHeaders(w http.ResponseWriter, info *blob.ObjectInfo) {
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("ETag", `"`+info.ETag+`"`)
	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
}

// handlePut overwrites the object at key with the request body. There is no
// partial update: size and etag change only through a full overwrite here.
func (g *Gateway) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	info, err := g.store.Put(r.Context(), key, r.Body, r.ContentLength, r.Header.Get("Content-Type"))
	if err != nil {
		g.storeError(w, r, err)
		return
	}

	g.metrics.RecordBytesTransferred("write", info.Size)
	w.WriteHeader(http.StatusCreated)
}

// handleDelete removes the object at key. Absence is not an error: repeated
// deletes of the same key all succeed.
func (g *Gateway) handleDelete(w http.ResponseWriter, r *http.Request, key string) {
	if err := g.store.Delete(r.Context(), key); err != nil {
		g.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMkcol satisfies clients that create parent collections before
// uploading. The store has no collection concept, so there is nothing to
// create - the method succeeds unconditionally and the "collection" will
// materialize in listings once objects exist under its prefix.
func (g *Gateway) handleMkcol(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusCreated)
}

// handleTransfer implements MOVE (withDelete) and COPY (!withDelete).
//
// Both are emulated with two sequential store calls: a full copy of the
// source object (content type preserved) to the destination key, then - for
// MOVE - a delete of the source. The store offers no cross-key transaction,
// so there is no rollback: a delete failing after a successful copy leaves
// both keys populated, a duplicate rather than data loss. Concurrent requests
// interleaved with the two steps can observe that transient state.
func (g *Gateway) handleTransfer(w http.ResponseWriter, r *http.Request, srcKey string, withDelete bool) {
	destination := r.Header.Get("Destination")
	if destination == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	destKey, err := g.resolveDestination(destination, r.Host)
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	// A transfer onto its own key is refused before any store access: the
	// MOVE delete leg would remove the freshly self-overwritten object, the
	// only copy. RFC 4918 prescribes 403 for source == destination.
	if destKey == srcKey {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	reader, info, err := g.store.Get(r.Context(), srcKey)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		g.storeError(w, r, err)
		return
	}
	defer func() { _ = reader.Close() }()

	if _, err := g.store.Put(r.Context(), destKey, reader, info.Size, info.ContentType); err != nil {
		g.storeError(w, r, err)
		return
	}
	g.metrics.RecordBytesTransferred("write", info.Size)

	if withDelete {
		if err := g.store.Delete(r.Context(), srcKey); err != nil {
			// Copy already succeeded; source and destination both exist now.
			logger.Warn("MOVE %s: source delete failed, duplicate left behind: %v", r.URL.Path, err)
			g.storeError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
}

// handleOptions advertises the gateway's capabilities. The DAV and
// MS-Author-Via headers are what convinces Windows and macOS WebDAV clients
// to talk to us at all.
func (g *Gateway) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "OPTIONS, GET, HEAD, PUT, DELETE, MKCOL, MOVE, COPY, PROPFIND")
	w.Header().Set("DAV", "1")
	w.Header().Set("MS-Author-Via", "DAV")
	w.WriteHeader(http.StatusNoContent)
}
