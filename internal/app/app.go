package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"

	servernet "track-runner/server/internal/net"
	"track-runner/server/internal/sim"
	"track-runner/server/internal/telemetry"
)

// Options carries the process entry parameters.
type Options struct {
	ConfigPath string
	// Addr overrides the configured listen address when non-empty.
	Addr   string
	Logger telemetry.Logger
}

// Run wires the simulation server behind its HTTP surface and serves
// until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = cfg.WithEnvOverrides(logger)
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
		logger.Printf("random source seeded with %d", cfg.Seed)
	}

	counters := telemetry.NewCounters()
	simServer := sim.NewServer(sim.ServerConfig{
		TickRate: cfg.TickRate,
		RNG:      rng,
		Logger:   logger,
		Metrics:  counters,
	})

	defaults := sim.DefaultRaceConfig()
	defaults.RunnerCount = cfg.DefaultRunnerCount
	defaults.TimeScale = cfg.DefaultTimeScale

	handler := servernet.NewHTTPHandler(simServer, servernet.HTTPHandlerConfig{
		Logger:   logger,
		Counters: counters,
		Defaults: defaults,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Printf("server listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
