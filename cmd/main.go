package main

import (
	"chatroom/domain"
	"chatroom/internal/handler"
	"chatroom/moderation"
	"chatroom/repositories"
	"chatroom/runtime/workers"
	"chatroom/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Returning the error instead of exiting keeps the defers (database cleanup)
// running and the bootstrap testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	maskingChar, err := characterRune(config.MaskingChar)
	if err != nil {
		return err
	}

	// 2. Storage (BadgerDB + Bluge index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories & Session service
	clock := domain.SystemClock{}
	participantRepository := repositories.NewParticipantRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log)
	searchIndex := repositories.NewSearchIndex(blugeWriter, log)

	moderator, err := moderation.NewEmbeddedModerator(maskingChar)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	session := services.NewSessionService(
		log, clock, participantRepository, messageRepository, searchIndex, &moderator,
	)

	// 4. Supervision: sweeper + telemetry
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewSweeperWorker(
		log, clock, participantRepository, messageRepository,
		config.SweepInterval, config.InactivityThreshold,
	))
	sup.Add(workers.NewTelemetryWorker(log, participantRepository, config.TelemetryInterval))

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 6. HTTP server
	h := handler.New(log, session)
	c := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS", "PUT"},
		AllowedHeaders: []string{"Content-Type", handler.UserHeader},
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: c.Handler(h.SetupRouter())}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "err", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
