package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/pgfault/internal/config"
	"github.com/phrazzld/pgfault/internal/platform/logger"
	"github.com/phrazzld/pgfault/internal/redact"
	"github.com/phrazzld/pgfault/internal/repro"
)

// run loads configuration, performs one reproduction and returns the process
// exit code. The report goes to stdout, logs to stderr.
func run(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.Setup(cfg.Log, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: failed to set up logger: %v\n", err)
		return 1
	}

	log.Debug("configuration loaded",
		"database", cfg.Database.Redacted(),
		"log_level", cfg.Log.Level,
		"log_format", cfg.Log.Format)

	if _, err := repro.New(cfg, stdout, log).Run(ctx); err != nil {
		log.Error("reproduction failed", slog.String("error", redact.Error(err)))
		_, _ = fmt.Fprintf(stdout, "Error: %s\n", redact.Error(err))
		return 1
	}
	return 0
}
