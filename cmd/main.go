package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"boardroom/ai"
	"boardroom/domain"
	"boardroom/moderation"
	"boardroom/repositories"
	"boardroom/runtime"
	"boardroom/runtime/workers"
	"boardroom/services"
	"boardroom/telegram"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the service lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Board roster & adapters
	roster, err := domain.LoadRosterFile(config.PersonasFilepath)
	if err != nil {
		return fmt.Errorf("loading personas: %w", err)
	}

	generator, err := ai.NewGeminiGenerator(ctx, config.GeminiAPIKey, config.GeminiModel, log)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	moderator, err := moderation.NewModerator(config.Blocklist())
	if err != nil {
		return fmt.Errorf("building moderation blocklist: %w", err)
	}

	transport, err := telegram.NewTransport(log, roster, config.CommandBuffer)
	if err != nil {
		return fmt.Errorf("connecting bots: %w", err)
	}

	// 5. Orchestration
	registry := runtime.NewRegistry()
	meetingRepository := repositories.NewMeetingRepository(db, log)

	orchestrator := runtime.NewOrchestrator(
		log, registry, meetingRepository, transport, generator, moderator,
		roster, domain.DefaultPlan(), config.Pacing(),
	)
	service := services.NewBoardService(log, transport, orchestrator, config.TargetChatID)
	telemetry := workers.NewTelemetryWorker(log, registry, config.TelemetryInterval)

	// 6. Supervision: block until every worker drained after a signal
	log.Info("Board is in session", "model", config.GeminiModel, "personas", roster.Len())
	workers.NewSupervisor(log, config.RestartInterval).
		Add(transport, service, telemetry).
		Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
