package webdav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotdav/zotdav/pkg/blob/memory"
)

func newPathGateway(t *testing.T) *Gateway {
	t.Helper()

	store, err := memory.NewMemoryStore(context.Background())
	require.NoError(t, err)

	return New(Config{Username: "user", Password: "pass"}, store, nil)
}

func TestResolveKey(t *testing.T) {
	g := newPathGateway(t)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{name: "simple file", path: "/zotero/storage/file.zip", want: "storage/file.zip"},
		{name: "namespace root", path: "/zotero/", want: ""},
		{name: "leading slashes stripped", path: "/zotero///a/b", want: "a/b"},
		{name: "trailing slash stripped", path: "/zotero/storage/", want: "storage"},
		{name: "interior double slash preserved", path: "/zotero/a//b", want: "a//b"},
		{name: "outside namespace", path: "/other/file", wantErr: errOutsideNamespace},
		{name: "prefix without trailing slash", path: "/zotero", wantErr: errOutsideNamespace},
		{name: "root path", path: "/", wantErr: errOutsideNamespace},
		{name: "dot dot segment", path: "/zotero/a/../b", wantErr: errDotSegment},
		{name: "single dot segment", path: "/zotero/./a", wantErr: errDotSegment},
		{name: "trailing dot dot", path: "/zotero/..", wantErr: errDotSegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := g.resolveKey(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestResolveDestination(t *testing.T) {
	g := newPathGateway(t)

	tests := []struct {
		name        string
		destination string
		host        string
		want        string
		wantErr     bool
	}{
		{
			name:        "absolute path",
			destination: "/zotero/storage/new.zip",
			host:        "dav.example.com",
			want:        "storage/new.zip",
		},
		{
			name:        "absolute URL same host",
			destination: "http://dav.example.com/zotero/storage/new.zip",
			host:        "dav.example.com",
			want:        "storage/new.zip",
		},
		{
			name:        "percent-encoded path",
			destination: "/zotero/storage/with%20space.bin",
			host:        "dav.example.com",
			want:        "storage/with space.bin",
		},
		{
			name:        "outside namespace",
			destination: "/private/target",
			host:        "dav.example.com",
			wantErr:     true,
		},
		{
			name:        "different host",
			destination: "http://evil.example.com/zotero/storage/new.zip",
			host:        "dav.example.com",
			wantErr:     true,
		},
		{
			name:        "dot segment",
			destination: "/zotero/../../etc/passwd",
			host:        "dav.example.com",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := g.resolveDestination(tt.destination, tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}
