package webdav

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/zotdav/zotdav/pkg/blob"
)

// handlePropfind answers property discovery for the resolved key.
//
// The store persists no collection objects, so the hierarchy reported here is
// synthesized at query time: a key is a collection iff no object is stored at
// it exactly, and its children are whatever objects a single prefix listing
// returns.
//
// Depth semantics:
//   - "0" (and every value other than "1"): one entry describing the key
//     itself, the stored object if one exists, otherwise a collection, since
//     the client is addressing the path as a container.
//   - "1": one entry for the key (always reported as a collection) followed
//     by one entry per object directly or transitively under key+"/". No
//     recursion happens beyond the single listing; a child's own children are
//     never expanded.
func (g *Gateway) handlePropfind(w http.ResponseWriter, r *http.Request, key string) {
	now := time.Now()

	if r.Header.Get("Depth") != "1" {
		g.propfindSelf(w, r, key, now)
		return
	}

	g.propfindChildren(w, r, key, now)
}

// propfindSelf emits the single Depth-0 entry.
func (g *Gateway) propfindSelf(w http.ResponseWriter, r *http.Request, key string, now time.Time) {
	info, err := g.store.Stat(r.Context(), key)
	switch {
	case err == nil:
		g.respondMultistatus(w, r, []davResponse{g.objectResponse(info)})
	case errors.Is(err, blob.ErrObjectNotFound):
		g.respondMultistatus(w, r, []davResponse{g.collectionResponse(key, now)})
	default:
		g.storeError(w, r, err)
	}
}

// propfindChildren emits the Depth-1 entries: the key itself as a collection,
// then every object under it from one prefix listing.
func (g *Gateway) propfindChildren(w http.ResponseWriter, r *http.Request, key string, now time.Time) {
	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	children, err := g.store.List(r.Context(), prefix)
	if err != nil {
		g.storeError(w, r, err)
		return
	}

	// Backends differ on listing order (the memory store has none at all),
	// so sort lexically for a listing that is stable across requests.
	sort.Slice(children, func(i, j int) bool {
		return children[i].Key < children[j].Key
	})

	responses := make([]davResponse, 0, len(children)+1)
	responses = append(responses, g.collectionResponse(key, now))
	for i := range children {
		responses = append(responses, g.objectResponse(&children[i]))
	}

	g.respondMultistatus(w, r, responses)
}

// respondMultistatus writes the document and logs serialization failures,
// which at that point cannot be reported to the client anymore.
func (g *Gateway) respondMultistatus(w http.ResponseWriter, r *http.Request, responses []davResponse) {
	if err := writeMultistatus(w, responses); err != nil {
		g.logError(r, err)
	}
}
