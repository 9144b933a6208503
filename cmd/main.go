package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"streamchat/contract"
	"streamchat/internal"
	"streamchat/moderation"
	"streamchat/repositories"
	"streamchat/runtime"
	"streamchat/runtime/workers"
	"streamchat/sink"
	"streamchat/telemetry"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Engine terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the engine lifecycle, and centralizes error reporting.
// Deferred cleanups (database close, bluge close) execute before the process exits.
func run() (int, error) {
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

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

	classifier, err := moderation.NewKeywordClassifier(logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("loading moderation dictionaries: %w", err)
	}
	screener := moderation.NewScreener(classifier, logger)

	registry := runtime.NewRegistry()
	metrics := telemetry.New()
	archive := repositories.NewMessageArchive(db, logger, lo.Ternary(config.LimitMessages != nil, config.LimitMessages, lo.ToPtr(100)))
	review := repositories.NewReviewIndex(blugeWriter, logger, 50, 50)

	engine := runtime.NewEngine(logger, registry, screener, openDirectory{},
		config.ClassifyTimeout, config.BufferSize)

	internal.StartDebugServer(logger, metrics, archive, review, config.DebugPort)

	fanout := workers.NewEventFanout(logger, engine.Events(), config.SinkTimeout,
		sink.NewArchiveSink(archive, logger),
		sink.NewSearchSink(review, logger),
		sink.NewMetricsSink(metrics),
	)
	janitor := workers.NewJanitor(logger, registry, metrics, config.RoomRetention, config.JanitorInterval)
	procStats := workers.NewProcStats(logger, metrics, config.MetricInterval)

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(fanout, janitor, procStats)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting chat engine workers...")
	go sup.Run(ctx)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	logger.Info("Shutting down gracefully...")
	engine.Shutdown()
	sup.Stop()
	if err := review.Flush(); err != nil {
		logger.Warn("final review index flush failed", "err", err)
	}
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

// openDirectory grants every follower/subscriber gate. The engine runs
// standalone without an identity provider; a real deployment swaps this
// for a client of the platform's account service.
type openDirectory struct{}

var _ contract.Directory = openDirectory{}

func (openDirectory) IsModerator(string, string) bool  { return false }
func (openDirectory) IsFollower(string, string) bool   { return true }
func (openDirectory) IsSubscriber(string, string) bool { return true }
