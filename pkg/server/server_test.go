package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotdav/zotdav/pkg/config"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:            0, // let the kernel pick a free port
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestNew_NilHandlerPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil, testConfig())
	})
}

func TestServe_StopsOnContextCancellation(t *testing.T) {
	srv := New(http.NotFoundHandler(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	// Give the listener a moment to come up before cancelling.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestStop_Idempotent(t *testing.T) {
	srv := New(http.NotFoundHandler(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop())
}
