package blob

import "errors"

// Standard blob store errors.
//
// These give the gateway a backend-independent way to detect common failure
// conditions and map them to protocol status codes.
//
// Implementations wrap them with context:
//
//	if !exists {
//	    return nil, fmt.Errorf("object %s: %w", key, blob.ErrObjectNotFound)
//	}
//
// and callers test with errors.Is:
//
//	if errors.Is(err, blob.ErrObjectNotFound) {
//	    return http.StatusNotFound
//	}

var (
	// ErrObjectNotFound indicates no object exists at the requested key.
	//
	// Returned by Get and Stat. Delete never returns it: removing an absent
	// key succeeds by definition.
	//
	// Protocol mapping: HTTP 404 Not Found.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey indicates the key is empty or otherwise unusable by the
	// backend (for example, exceeding the backend's key length limit).
	//
	// Protocol mapping: HTTP 400 Bad Request.
	ErrInvalidKey = errors.New("invalid object key")
)
