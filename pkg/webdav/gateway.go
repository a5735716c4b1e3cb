// Package webdav implements the WebDAV-to-blob-store translation layer.
//
// The gateway exposes a flat key-addressed blob store through a subset of the
// WebDAV protocol, so that hierarchical-filesystem-expecting clients (Zotero
// sync in particular) can synchronize files against it. Directories are an
// illusion: no collection is ever persisted, and PROPFIND listings are
// synthesized from prefix queries at request time.
//
// Supported methods: GET, HEAD, PUT, DELETE, MKCOL, MOVE, COPY, PROPFIND,
// OPTIONS. LOCK/UNLOCK and ranged reads are deliberately not implemented.
//
// Every request is processed independently: the gateway holds no mutable
// state, all shared state lives in the blob store, and requests never block
// each other at this layer. Cancellation and timeouts are deferred entirely
// to the enclosing http.Server and the store client.
package webdav

import (
	"errors"
	"net/http"
	"time"

	"github.com/zotdav/zotdav/internal/logger"
	"github.com/zotdav/zotdav/pkg/blob"
	"github.com/zotdav/zotdav/pkg/metrics"
)

// Config holds the gateway's process-wide settings.
//
// They are injected at construction rather than read from ambient globals so
// tests can run isolated gateways with distinct credentials.
type Config struct {
	// Prefix is the namespace prefix delimiting the served URL path space,
	// including both slashes (default "/zotero/"). Requests outside it are
	// rejected before any store access.
	Prefix string

	// Username and Password are the expected Basic credentials. Every
	// request is authenticated against them independently.
	Username string
	Password string

	// Realm is advertised in the Basic challenge. Default "zotdav".
	Realm string
}

// DefaultPrefix is the namespace prefix Zotero sync clients expect.
const DefaultPrefix = "/zotero/"

// Gateway translates WebDAV methods into blob store operations.
type Gateway struct {
	prefix   string
	username string
	password string
	realm    string
	store    blob.Store
	metrics  metrics.WebDAVMetrics
}

// New creates a gateway serving the given store.
//
// m may be nil, in which case no metrics are collected.
func New(cfg Config, store blob.Store, m metrics.WebDAVMetrics) *Gateway {
	if store == nil {
		panic("blob store cannot be nil")
	}

	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Realm == "" {
		cfg.Realm = "zotdav"
	}
	if m == nil {
		m = metrics.NewNoopWebDAVMetrics()
	}

	return &Gateway{
		prefix:   cfg.Prefix,
		username: cfg.Username,
		password: cfg.Password,
		realm:    cfg.Realm,
		store:    store,
		metrics:  m,
	}
}

// statusRecorder captures the status code written to the client so completed
// requests can be recorded with their outcome.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// ServeHTTP authenticates the request, resolves its path, and dispatches to
// the per-method handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	g.metrics.RecordRequestStart(r.Method)
	defer func() {
		g.metrics.RecordRequestEnd(r.Method)
		g.metrics.RecordRequest(r.Method, rec.status, time.Since(start))
	}()

	if !g.authorized(r) {
		g.challenge(rec)
		return
	}

	key, err := g.resolveKey(r.URL.Path)
	if err != nil {
		switch {
		case errors.Is(err, errDotSegment):
			// Traversal attempts are refused before any store access.
			rec.WriteHeader(http.StatusBadRequest)
		default:
			rec.WriteHeader(http.StatusNotFound)
		}
		return
	}

	logger.Debug("%s %s (key=%q)", r.Method, r.URL.Path, key)

	switch r.Method {
	case http.MethodGet:
		g.handleGet(rec, r, key)
	case http.MethodHead:
		g.handleHead(rec, r, key)
	case http.MethodPut:
		g.handlePut(rec, r, key)
	case http.MethodDelete:
		g.handleDelete(rec, r, key)
	case "MKCOL":
		g.handleMkcol(rec, r)
	case "MOVE":
		g.handleTransfer(rec, r, key, true)
	case "COPY":
		g.handleTransfer(rec, r, key, false)
	case "PROPFIND":
		g.handlePropfind(rec, r, key)
	case http.MethodOptions:
		g.handleOptions(rec, r)
	default:
		rec.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// storeError reports an unexpected store failure as a generic server error.
// No retry and no partial-state cleanup is attempted: the failure is fatal
// for this single request.
func (g *Gateway) storeError(w http.ResponseWriter, r *http.Request, err error) {
	g.logError(r, err)
	w.WriteHeader(http.StatusInternalServerError)
}

func (g *Gateway) logError(r *http.Request, err error) {
	logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
}
