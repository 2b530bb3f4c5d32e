package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/okian/housecup/pkg/logger"
)

// SetupLogging initialises the global logger writing to stdout and to
// logFile. An empty logFile gets a timestamped name.
func SetupLogging(logFile string, verbose bool) (string, error) {
	if logFile == "" {
		logFile = "seed_log_" + time.Now().Format("20060102_150405") + ".log"
	}
	if err := logger.Init(logger.WithEnv("dev"), logger.WithOutputPaths("stdout", logFile)); err != nil {
		return "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return "", err
		}
	}
	return logFile, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Housecup Seed Tool
==================

Generates house event results, submits them concurrently through the HTTP
API and checks that the served standings match a local recomputation.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -events int
        Number of events to generate and submit (default 200)
  -workers int
        Number of concurrent submitters (default 2 x CPUs)
  -retry float
        Share of events submitted a second time with the same key (default 0.1)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for the served view to include every write (default 10s)
  -output string
        Save generated events to this JSON file
  -log string
        Log file (default seed_log_TIMESTAMP.log)
  -verbose
        Log every request outcome
  -help
        Show this help

Examples:
  go run ./cmd/seed -events 500 -workers 16
  go run ./cmd/seed -url http://school.local:9080 -retry 0.25 -output events.json
`)
}
