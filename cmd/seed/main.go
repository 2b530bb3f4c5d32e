package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/housecup/internal/seed"
	"github.com/okian/housecup/pkg/logger"
)

const (
	defaultNumEvents  = 200
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultRetryRate  = 0.1
	defaultTimeout    = 10 * time.Second
	defaultSettleWait = 10 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		retryRate  = flag.Float64("retry", defaultRetryRate, "Share of events submitted a second time with the same key")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settleWait = flag.Duration("settle", defaultSettleWait, "How long to wait for the served view to include every write")
		outputFile = flag.String("output", "", "Save generated events to this JSON file")
		logFile    = flag.String("log", "", "Log file (default: seed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every request outcome")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if _, err := seed.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		NumEvents:  *numEvents,
		Workers:    *workers,
		Timeout:    *timeout,
		RetryRate:  *retryRate,
		SettleWait: *settleWait,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}
	err := run(cfg)
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *seed.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	l := logger.Named("seed")
	if _, err := seed.Run(ctx, cfg, l); err != nil {
		l.Error(ctx, "seed run failed", logger.Error(err))
		return err
	}
	return nil
}
