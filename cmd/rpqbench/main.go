// Command rpqbench drives the relaxed priority queue with a
// configurable mix of Insert/DeleteMin/PeekMin across concurrent
// worker goroutines, reporting a single throughput row (optionally
// appended to a CSV file). It is the external throughput-driver
// collaborator the core package documents but does not depend on.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/panjf2000/ants/v2"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/maschad/spray"
	"github.com/maschad/spray/lib/xlog"
	"github.com/maschad/spray/observability"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newQueue,
			newWorkerPool,
			newMetricsShutdown,
		),
		fx.Invoke(runDriver),
		fx.NopLogger,
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.LogLevelInfo),
		xlog.WithXLoggerEncoder(xlog.PlainText),
	)
}

func newQueue(cfg *Config) *spray.Queue[int, string] {
	q, err := spray.New[int, string](spray.WithInitialThreads[int, string](int32(cfg.Threads)))
	if err != nil {
		// New fails only on invalid SprayParams, and this driver always
		// passes the defaults; reaching here would mean a programming
		// error, not a user-facing one.
		panic(err)
	}
	return q
}

func newWorkerPool(cfg *Config, lc fx.Lifecycle, logger xlog.XLogger) *ants.Pool {
	pool, err := ants.NewPool(cfg.Threads)
	if err != nil {
		logger.ErrorStack(err, "rpqbench: failed to create worker pool")
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Release()
			return nil
		},
	})
	return pool
}

// newMetricsShutdown selects a metrics exporter (console unless
// --scaling is set, which uses the Prometheus exporter; this driver
// starts no HTTP endpoint for it) and registers its shutdown with fx.
func newMetricsShutdown(cfg *Config, lc fx.Lifecycle, logger xlog.XLogger) struct{} {
	var shutdown func(ctx context.Context) error
	var err error
	if cfg.Scaling {
		shutdown, err = observability.NewPrometheusMetricsExporter()
	} else {
		shutdown, err = observability.NewConsoleMetricsExporter()
	}
	if err != nil {
		logger.ErrorStack(err, "rpqbench: failed to start metrics exporter")
		return struct{}{}
	}
	observability.InitQueueStats(context.Background())
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if shutdown != nil {
				return shutdown(ctx)
			}
			return nil
		},
	})
	return struct{}{}
}

func runDriver(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *Config, q *spray.Queue[int, string], pool *ants.Pool, logger xlog.XLogger, _ struct{}) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				runCtx, cancel := context.WithCancel(context.Background())
				defer cancel()
				if cfg.Scaling {
					go runScaling(runCtx, q, cfg, logger)
				}

				res, err := runBenchmark(runCtx, q, cfg, pool)
				if err != nil {
					logger.ErrorStack(err, "rpqbench: benchmark run failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}

				logger.Info("rpqbench: run complete",
					zap.Int("threads", res.Threads),
					zap.Float64("duration_seconds", res.DurationSeconds),
					zap.Int64("operations", res.Operations),
					zap.Float64("throughput_ops_per_sec", res.ThroughputOpsPerSec),
					zap.Float64("success_rate", res.SuccessRate),
				)

				if cfg.CSVPath != "" {
					if err := appendCSV(cfg.CSVPath, res); err != nil {
						logger.ErrorStack(err, "rpqbench: failed to write CSV")
					}
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
