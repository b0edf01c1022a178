// Package app wires configuration, infrastructure, and the ingestion
// pipeline together into the single entry point cmd/skywatch calls.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wisbric/skywatch/internal/config"
	"github.com/wisbric/skywatch/internal/feeds"
	"github.com/wisbric/skywatch/internal/ingestion"
	"github.com/wisbric/skywatch/internal/platform"
	"github.com/wisbric/skywatch/internal/resilience"
	"github.com/wisbric/skywatch/internal/runlock"
	"github.com/wisbric/skywatch/internal/telemetry"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and runs one ingestion cycle in "ingest" mode.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting skywatch", "mode", cfg.Mode)

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	switch cfg.Mode {
	case "ingest":
		return runIngest(ctx, cfg, logger, db, rdb)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// runIngest acquires the run lock, runs one ingestion cycle, and writes the
// resulting report to stdout as JSON. Per spec.md §5, two runs must never
// execute concurrently; that is enforced here, not inside the pipeline.
func runIngest(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) error {
	lock := runlock.New(rdb, "skywatch:ingestion:run-lock", cfg.RunLockTTL)
	release, ok, err := lock.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another run is in progress")
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), cfg.RunLockTTL)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			logger.Error("releasing run lock", "error", err)
		}
	}()

	sb := feeds.NewSmallBodyClient(smallBodyConfig(cfg))
	ca := feeds.NewCloseApproachClient(closeApproachConfig(cfg))
	ir := feeds.NewImpactRiskClient(impactRiskConfig(cfg))

	pipelineCfg := ingestion.DefaultConfig()
	pipelineCfg.SmallBodyLimit = cfg.FetchLimit
	pipelineCfg.MaxAsteroidsPerRun = cfg.MaxAsteroidsPerRun
	pipelineCfg.ApproachWorkers = cfg.ApproachWorkers
	pipelineCfg.InterCallDelay = cfg.InterCallDelay
	pipelineCfg.ThreatChunkSize = cfg.ThreatChunkSize
	pipelineCfg.PruneOlderThan = cfg.PruneOlderThan
	pipelineCfg.PruneFartherThan = cfg.PruneFartherThan

	pipeline := ingestion.NewPipeline(sb, ca, ir, db, logger, pipelineCfg)

	report, runErr := pipeline.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("encoding report", "error", err)
	}

	return runErr
}

func smallBodyConfig(cfg *config.Config) feeds.SmallBodyConfig {
	c := feeds.DefaultSmallBodyConfig(cfg.SmallBodyURL)
	c.DefaultLimit = cfg.FetchLimit
	c.BatchSize = cfg.DetailBatchSize
	c.BatchDelay = cfg.DetailBatchDelay
	c.Timeout = cfg.SmallBodyEndpoint.Timeout
	c.CircuitBreaker = resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.SmallBodyEndpoint.FailureThreshold,
		RecoveryTimeout:  cfg.SmallBodyEndpoint.RecoveryTimeout,
	}
	c.Bulkhead = resilience.BulkheadConfig{
		MaxConcurrent: cfg.SmallBodyEndpoint.MaxConcurrent,
		QueueSize:     cfg.SmallBodyEndpoint.QueueSize,
	}
	return c
}

func closeApproachConfig(cfg *config.Config) feeds.CloseApproachConfig {
	c := feeds.DefaultCloseApproachConfig(cfg.CloseApproachURL)
	c.Timeout = cfg.CloseApproachEndpoint.Timeout
	c.CircuitBreaker = resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.CloseApproachEndpoint.FailureThreshold,
		RecoveryTimeout:  cfg.CloseApproachEndpoint.RecoveryTimeout,
	}
	c.Bulkhead = resilience.BulkheadConfig{
		MaxConcurrent: cfg.CloseApproachEndpoint.MaxConcurrent,
		QueueSize:     cfg.CloseApproachEndpoint.QueueSize,
	}
	return c
}

func impactRiskConfig(cfg *config.Config) feeds.ImpactRiskConfig {
	c := feeds.DefaultImpactRiskConfig(cfg.ImpactRiskURL)
	c.Timeout = cfg.ImpactRiskEndpoint.Timeout
	c.CircuitBreaker = resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.ImpactRiskEndpoint.FailureThreshold,
		RecoveryTimeout:  cfg.ImpactRiskEndpoint.RecoveryTimeout,
	}
	c.Bulkhead = resilience.BulkheadConfig{
		MaxConcurrent: cfg.ImpactRiskEndpoint.MaxConcurrent,
		QueueSize:     cfg.ImpactRiskEndpoint.QueueSize,
	}
	return c
}
