package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/zotdav/zotdav/internal/logger"
	"github.com/zotdav/zotdav/pkg/blob"
	"github.com/zotdav/zotdav/pkg/config"
	"github.com/zotdav/zotdav/pkg/metrics"
	promMetrics "github.com/zotdav/zotdav/pkg/metrics/prometheus"
	"github.com/zotdav/zotdav/pkg/server"
	"github.com/zotdav/zotdav/pkg/webdav"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/zotdav/config.yaml)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("zotdav %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure logger
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	logger.Info("zotdav %s starting", version)
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create blob store backend
	store, err := config.CreateBlobStore(ctx, &cfg.Store)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	logger.Info("Blob store backend: %s", cfg.Store.Type)

	// Set up metrics collection and the scrape endpoint
	gatewayMetrics := metrics.NewNoopWebDAVMetrics()
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		gatewayMetrics = promMetrics.NewWebDAVMetrics()
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
	}

	gateway := webdav.New(webdav.Config{
		Prefix:   cfg.Gateway.Prefix,
		Username: cfg.Gateway.Username,
		Password: cfg.Gateway.Password,
		Realm:    cfg.Gateway.Realm,
	}, store, gatewayMetrics)

	srv := server.New(gateway, cfg.Server)

	// Log server configuration
	logger.Info("Server configuration:")
	logger.Info("  Port: %d", cfg.Server.Port)
	logger.Info("  Namespace prefix: %s", cfg.Gateway.Prefix)
	logger.Info("  Read timeout: %v", cfg.Server.ReadTimeout)
	logger.Info("  Write timeout: %v", cfg.Server.WriteTimeout)
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)
	if cfg.Metrics.Enabled {
		logger.Info("  Metrics port: %d", cfg.Metrics.Port)
	} else {
		logger.Info("  Metrics: disabled")
	}

	// Start metrics server in background
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start gateway server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", cfg.Server.Port)

	exitCode := 0
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			exitCode = 1
		} else {
			logger.Info("Server stopped gracefully")
		}

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			exitCode = 1
		} else {
			logger.Info("Server stopped")
		}
	}

	closeStore(store)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// closeStore flushes and releases store backends that hold resources
// (Badger's database lock in particular). Memory and S3 stores have no
// Close and are skipped.
func closeStore(store blob.Store) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}

	if err := closer.Close(); err != nil {
		logger.Error("Failed to close blob store: %v", err)
	} else {
		logger.Info("Blob store closed")
	}
}
