package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"

	"chat-relay/httpapi"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/ws"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanup (database close, index close) always executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories & Services
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	identityRepository := repositories.NewIdentityRepository(db)
	searchIndex := repositories.NewSearchIndex(blugeWriter, logger)
	history := services.NewHistoryService(messageRepository, identityRepository, searchIndex, metrics, logger)

	var moderator *moderation.Moderator
	if config.ModerationEnabled {
		words, err := moderation.LoadWords(config.CensoredWordsPath)
		if err != nil {
			return exitConfig, fmt.Errorf("loading censored words: %w", err)
		}
		moderator, err = moderation.NewModerator(words, charReplacement)
		if err != nil {
			return exitConfig, fmt.Errorf("building moderator: %w", err)
		}
		logger.Info("Moderation enabled", "words", len(words))
	}

	// 4. Runtime
	registry := runtime.NewRegistry(metrics)
	presence := runtime.NewPresence(registry, logger)
	gate := runtime.NewGate(registry, history, presence, logger)
	router := runtime.NewRouter(registry, gate, history, presence, moderator, metrics, logger, config.SearchLimit)

	socketHandler := ws.NewHandler(registry, router, presence, logger, config.SendBufferSize, config.MaxMessageSize)

	uploads, err := httpapi.NewUploadHandler(config.UploadsDir, logger)
	if err != nil {
		return exitRuntime, err
	}
	users := httpapi.NewUsersHandler(identityRepository, logger)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewTelemetryWorker(logger, metrics, config.MetricInterval),
		workers.NewStorageGCWorker(logger, db, config.StorageGCInterval),
	)
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 7. HTTP server
	server := &http.Server{
		Addr:    config.Addr(),
		Handler: httpapi.NewRouter(socketHandler, uploads, users, config.UploadsDir, promRegistry),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting relay server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "err", err)
	}

	sup.Stop()
	<-supDone

	// let in-flight appends settle before the store closes
	history.Drain()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
