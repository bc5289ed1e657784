// Command lobsterload replays a Lobsters-style page workload against a
// Postgres backend and reports per-page latency histograms.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine"
	"github.com/lobsterload/lobsterload/workload/primer"
)

// Fixed seed so two runs against identically primed databases replay
// the same request stream.
const rngSeed = 0x10b57e55

func main() {
	if err := run(); err != nil {
		log.Fatalf("lobsterload failed: %v", err)
	}
}

func run() error {
	cfg := parseFlags()
	if err := cfg.validate(); err != nil {
		return err
	}

	logger := cfg.newLogger()
	runID := uuid.New()

	logger.Info("starting benchmark run",
		"run_id", runID.String(),
		"variant", cfg.Variant,
		"driver", cfg.Driver,
		"scale", cfg.Scale,
		"in_flight", cfg.Workers,
		"runtime", cfg.Runtime.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, logger)
		defer stop()
	}

	seeded := primer.FromScale(cfg.Scale)
	seeded.Concurrency = cfg.Workers

	if cfg.Prime {
		if err := pgengine.Bootstrap(ctx, cfg.DSN, cfg.Variant, logger); err != nil {
			return fmt.Errorf("bootstrapping schema: %w", err)
		}
		if err := prime(ctx, cfg, seeded, logger); err != nil {
			return err
		}
	}

	engine, err := cfg.newEngine(logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	runner := newRunner(cfg, engine, logger)
	runErr := runner.Run(ctx, seeded, rand.New(rand.NewSource(rngSeed)))

	// Close the pool before reporting so in-flight checkouts resolve.
	engine.Close()

	runner.report()

	if cfg.HistogramFile != "" {
		if err := writeHistograms(runner, cfg.HistogramFile, logger); err != nil {
			return err
		}
	}

	return runErr
}

// prime seeds content through a dedicated engine so the measured run
// starts with a fresh pool.
func prime(ctx context.Context, cfg Config, seeded primer.Config, logger workload.Logger) error {
	engine, err := cfg.newEngine(logger)
	if err != nil {
		return fmt.Errorf("creating priming engine: %w", err)
	}
	defer engine.Close()

	seedRNG := rand.New(rand.NewSource(rngSeed))
	return primer.New(engine, seeded, seedRNG, logger).Run(ctx)
}

func writeHistograms(runner *runner, path string, logger workload.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating histogram file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := runner.reg.WriteSnapshots(f); err != nil {
		return fmt.Errorf("writing histogram file: %w", err)
	}

	logger.Info("histograms written", "path", path)
	return nil
}
