package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nutriguide/nutriload/internal/config"
	"github.com/nutriguide/nutriload/internal/logging"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// loadProjectConfig loads .env and the project configuration.
// Returns nil config if ./nutriload.yaml does not exist (not an error); an
// explicit --config path must exist.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		projectCfg, err := config.LoadFile(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("config file %s does not exist: %w", path, nutriload.ErrInvalidConfig)
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, errors.Join(err, nutriload.ErrInvalidConfig))
		}
		return projectCfg, nil
	}

	projectCfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, errors.Join(err, nutriload.ErrInvalidConfig))
	}
	return projectCfg, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring nutriload.yaml if the flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in %s: %w", config.ConfigFileName, errors.Join(err, nutriload.ErrInvalidConfig))
		}
		return parsed, nil
	}
	if flagTimeout <= 0 {
		return 0, fmt.Errorf("--timeout must be positive: %w", nutriload.ErrInvalidConfig)
	}
	return flagTimeout, nil
}

// loggerCloser is the logger plus the flush to run before exit.
type loggerCloser struct {
	nutriload.Logger
	sync func()
}

// newLogger builds the logger selected by --log-format. JSON logs carry
// the run id on every entry.
func newLogger(format string, verbose bool, runID string) (*loggerCloser, error) {
	switch format {
	case "", logFormatText:
		return &loggerCloser{Logger: logging.NewConsoleLogger(verbose), sync: func() {}}, nil
	case logFormatJSON:
		zl, err := logging.NewZapLogger(verbose, "run_id", runID)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		return &loggerCloser{Logger: zl, sync: zl.Sync}, nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: expected %s or %s: %w",
			format, logFormatText, logFormatJSON, nutriload.ErrInvalidConfig)
	}
}

// signalContext returns a context cancelled on timeout, SIGINT or SIGTERM.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
