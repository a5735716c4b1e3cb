package metrics

import "time"

// WebDAVMetrics provides observability for gateway request handling.
//
// The interface is optional: handlers accept nil and substitute the no-op
// implementation, so metrics collection costs nothing when disabled.
type WebDAVMetrics interface {
	// RecordRequest records a completed request with its method, the HTTP
	// status written, and the time taken to process it.
	RecordRequest(method string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request counter for the
	// method.
	RecordRequestStart(method string)

	// RecordRequestEnd decrements the in-flight request counter for the
	// method.
	RecordRequestEnd(method string)

	// RecordBytesTransferred records object bytes moved through the
	// gateway. direction is "read" (GET) or "write" (PUT and the copy leg
	// of MOVE/COPY).
	RecordBytesTransferred(direction string, bytes int64)
}

// noopWebDAVMetrics is the zero-overhead implementation used when metrics
// collection is disabled.
type noopWebDAVMetrics struct{}

// NewNoopWebDAVMetrics returns a WebDAVMetrics that records nothing.
func NewNoopWebDAVMetrics() WebDAVMetrics {
	return noopWebDAVMetrics{}
}

func (noopWebDAVMetrics) RecordRequest(string, int, time.Duration) {}
func (noopWebDAVMetrics) RecordRequestStart(string) {}
func (noopWebDAVMetrics) RecordRequestEnd(string) {}
func (noopWebDAVMetrics) RecordBytesTransferred(string, int64) {}
