package webdav

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotdav/zotdav/pkg/blob"
	"github.com/zotdav/zotdav/pkg/blob/memory"
)

const (
	testUser = "zotero-user"
	testPass = "zotero-pass"
)

func newTestGateway(t *testing.T) (*Gateway, blob.Store) {
	t.Helper()

	store, err := memory.NewMemoryStore(context.Background())
	require.NoError(t, err)

	g := New(Config{Username: testUser, Password: testPass}, store, nil)
	return g, store
}

// request performs an authenticated request against the gateway.
func request(g *Gateway, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.SetBasicAuth(testUser, testPass)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func mustPutObject(t *testing.T, store blob.Store, key string, data []byte, contentType string) *blob.ObjectInfo {
	t.Helper()
	info, err := store.Put(context.Background(), key, bytes.NewReader(data), int64(len(data)), contentType)
	require.NoError(t, err)
	return info
}

// failingStore fails the test on any access: it proves a code path never
// reaches the store.
type failingStore struct {
	t *testing.T
}

func (s *failingStore) Get(context.Context, string) (io.ReadCloser, *blob.ObjectInfo, error) {
	s.t.Fatal("store accessed: Get")
	return nil, nil, nil
}

func (s *failingStore) Stat(context.Context, string) (*blob.ObjectInfo, error) {
	s.t.Fatal("store accessed: Stat")
	return nil, nil
}

func (s *failingStore) Put(context.Context, string, io.Reader, int64, string) (*blob.ObjectInfo, error) {
	s.t.Fatal("store accessed: Put")
	return nil, nil
}

func (s *failingStore) Delete(context.Context, string) error {
	s.t.Fatal("store accessed: Delete")
	return nil
}

func (s *failingStore) List(context.Context, string) ([]blob.ObjectInfo, error) {
	s.t.Fatal("store accessed: List")
	return nil, nil
}

// mutationRecorder counts writes so tests can assert nothing was mutated.
type mutationRecorder struct {
	blob.Store
	puts    int
	deletes int
}

func (m *mutationRecorder) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*blob.ObjectInfo, error) {
	m.puts++
	return m.Store.Put(ctx, key, body, size, contentType)
}

func (m *mutationRecorder) Delete(ctx context.Context, key string) error {
	m.deletes++
	return m.Store.Delete(ctx, key)
}

func TestGateway_Unauthorized(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{
			name:  "missing credentials",
			setup: func(r *http.Request) {},
		},
		{
			name: "wrong password",
			setup: func(r *http.Request) {
				r.SetBasicAuth(testUser, "wrong")
			},
		},
		{
			name: "wrong username",
			setup: func(r *http.Request) {
				r.SetBasicAuth("intruder", testPass)
			},
		},
		{
			name: "malformed authorization header",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic not!base64%")
			},
		},
	}

	// Credential failures must be decided before any store access,
	// regardless of method or path.
	methods := []string{"GET", "PUT", "DELETE", "PROPFIND", "MKCOL", "MOVE", "OPTIONS"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, method := range methods {
				g := New(Config{Username: testUser, Password: testPass}, &failingStore{t: t}, nil)

				req := httptest.NewRequest(method, "/zotero/storage/file.zip", nil)
				tt.setup(req)

				rec := httptest.NewRecorder()
				g.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusUnauthorized, rec.Code, "method %s", method)
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic", "challenge required so clients retry with credentials")
			}
		})
	}
}

func TestGateway_OutsideNamespace(t *testing.T) {
	g := New(Config{Username: testUser, Password: testPass}, &failingStore{t: t}, nil)

	for _, path := range []string{"/", "/other/file", "/zotero"} {
		rec := request(g, "GET", path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", path)
	}
}

func TestGateway_DotSegmentRejected(t *testing.T) {
	g := New(Config{Username: testUser, Password: testPass}, &failingStore{t: t}, nil)

	rec := request(g, "GET", "/zotero/storage/../secret", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGateway_MethodNotAllowed(t *testing.T) {
	g, _ := newTestGateway(t)

	for _, method := range []string{"POST", "PATCH", "LOCK", "UNLOCK", "PROPPATCH", "TRACE"} {
		rec := request(g, method, "/zotero/storage/file.zip", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "method %s", method)
	}
}

func TestGateway_Options(t *testing.T) {
	g, _ := newTestGateway(t)

	rec := request(g, "OPTIONS", "/zotero/", nil, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("DAV"))
	assert.Equal(t, "DAV", rec.Header().Get("MS-Author-Via"))

	allow := rec.Header().Get("Allow")
	for _, method := range []string{"OPTIONS", "GET", "HEAD", "PUT", "DELETE", "MKCOL", "MOVE", "COPY", "PROPFIND"} {
		assert.Contains(t, allow, method)
	}
	assert.NotContains(t, allow, "LOCK")
	assert.Empty(t, rec.Body.Bytes())
}

func TestGateway_CustomPrefix(t *testing.T) {
	store, err := memory.NewMemoryStore(context.Background())
	require.NoError(t, err)

	g := New(Config{Prefix: "/dav/", Username: testUser, Password: testPass}, store, nil)

	rec := request(g, "PUT", "/dav/notes.txt", []byte("hello"), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The default prefix no longer exists.
	rec = request(g, "GET", "/zotero/notes.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(g, "GET", "/dav/notes.txt", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}
