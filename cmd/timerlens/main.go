package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/timerlens/internal/config"
	"github.com/sanspareilsmyn/timerlens/internal/logging"
	"github.com/sanspareilsmyn/timerlens/internal/pipeline"
)

var (
	configFile = flag.String("config", "", "Path to the configuration file (empty for defaults and environment only)")
	logger     *zap.Logger
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config path] [profiling-file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Initialize Configuration
	cfg, err := loadConfig(*configFile, flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %q: %v\n", *configFile, err)
		return 1
	}

	// Initialize Logger
	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		return 1
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Logger initialized",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
	)
	sugar.Infow("Configuration loaded successfully", "path", *configFile)

	// Initialize Pipeline
	pipe, err := pipeline.New(cfg, logger)
	if err != nil {
		sugar.Errorw("Failed to initialize pipeline", "error", err)
		return 1
	}
	defer func() {
		if cerr := pipe.Close(); cerr != nil {
			sugar.Warnw("Failed to close pipeline", "error", cerr)
		}
	}()

	// Handle Graceful Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		select {
		case sig := <-signals:
			sugar.Infow("Received signal, initiating shutdown...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run Pipeline
	runErr := pipe.Run(ctx)

	// Evaluate Pipeline Result
	finalLogLevel := zapcore.InfoLevel
	exitCode := 0
	outcome := "completed"
	var finalErrorField = zap.Skip()

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		outcome = "cancelled"
		exitCode = 1
	default:
		outcome = "failed"
		exitCode = 1
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
	}

	logger.Log(finalLogLevel, fmt.Sprintf("Run %s.", outcome),
		zap.String("outcome", outcome),
		finalErrorField,
	)
	return exitCode
}

// loadConfig reads the configuration and lets a positional input path
// override the configured source.
func loadConfig(path, input string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if input != "" {
		cfg.Input.Source = config.SourceFile
		cfg.Input.Path = input
	}
	return cfg, nil
}
