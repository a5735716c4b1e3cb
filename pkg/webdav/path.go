package webdav

import (
	"errors"
	"net/url"
	"strings"
)

// Path resolution errors, mapped to status codes by the method handlers.
var (
	// errOutsideNamespace indicates the path does not start with the
	// configured namespace prefix. 404 for request paths, 403 for
	// Destination targets.
	errOutsideNamespace = errors.New("path outside namespace")

	// errDotSegment indicates the path contains a "." or ".." segment.
	// Dot segments are rejected outright rather than collapsed: a key is a
	// store identifier, not a filesystem path, and traversal must never
	// reach keys above the resolved one. 400 for request paths, 403 for
	// Destination targets.
	errDotSegment = errors.New("path contains dot segment")
)

// resolveKey translates an already-decoded URL path into a store key.
//
// The namespace prefix is stripped, runs of leading and trailing slashes are
// removed (clients address collections with a trailing slash, but a key never
// carries one), and dot segments are rejected. No other normalization is
// applied: repeated interior slashes are preserved, so "a//b" and "a/b" are
// distinct keys.
func (g *Gateway) resolveKey(path string) (string, error) {
	if !strings.HasPrefix(path, g.prefix) {
		return "", errOutsideNamespace
	}

	key := strings.Trim(strings.TrimPrefix(path, g.prefix), "/")

	for _, segment := range strings.Split(key, "/") {
		if segment == "." || segment == ".." {
			return "", errDotSegment
		}
	}

	return key, nil
}

// resolveDestination translates a Destination header value into a store key.
//
// The header may carry an absolute URL or an absolute path. When an authority
// is present it must match the request's own host; a destination pointing at
// a different host is refused rather than silently treated as a local path.
// The path is percent-decoded before namespace and dot-segment checks.
func (g *Gateway) resolveDestination(destination, requestHost string) (string, error) {
	u, err := url.Parse(destination)
	if err != nil {
		return "", errOutsideNamespace
	}

	if u.Host != "" && u.Host != requestHost {
		return "", errOutsideNamespace
	}

	return g.resolveKey(u.Path)
}
