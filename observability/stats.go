package observability

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rpqbench/queue"

var once sync.Once

// QueueStats holds the instruments InitQueueStats registers. Callers
// record operation counts directly; Len is sampled lazily through an
// observable callback, matching the queue's own advisory-under-
// concurrency semantics for len().
type QueueStats struct {
	ctx              context.Context
	shutdownCallback func(ctx context.Context) error

	inserts        metric.Int64Counter
	deleteMins     metric.Int64Counter
	deleteMinFalls metric.Int64Counter
	peeks          metric.Int64Counter

	goroutines metric.Int64ObservableUpDownCounter
	processes  metric.Int64ObservableUpDownCounter
	queueLen   metric.Int64ObservableUpDownCounter

	length atomic.Int64
}

func (stats *QueueStats) waitForShutdown() {
	if stats == nil || stats.shutdownCallback == nil {
		return
	}
	go func() {
		<-stats.ctx.Done()
		_ = stats.shutdownCallback(context.Background())
	}()
}

// RecordInsert, RecordDeleteMin, RecordPeek, and SetLen are cheap,
// nil-safe no-ops before InitQueueStats has run, so callers never need
// to guard on whether metrics are enabled.
var current atomic.Pointer[QueueStats]

func (stats *QueueStats) RecordInsert(ctx context.Context) {
	if stats == nil {
		return
	}
	stats.inserts.Add(ctx, 1)
}

func (stats *QueueStats) RecordDeleteMin(ctx context.Context, viaFallback bool) {
	if stats == nil {
		return
	}
	stats.deleteMins.Add(ctx, 1)
	if viaFallback {
		stats.deleteMinFalls.Add(ctx, 1)
	}
}

func (stats *QueueStats) RecordPeek(ctx context.Context) {
	if stats == nil {
		return
	}
	stats.peeks.Add(ctx, 1)
}

func (stats *QueueStats) SetLen(n int64) {
	if stats == nil {
		return
	}
	stats.length.Store(n)
}

// Current returns the process-wide QueueStats registered by
// InitQueueStats, or nil if it has not been called. All methods on a
// nil *QueueStats are safe no-ops.
func Current() *QueueStats { return current.Load() }

// InitQueueStats registers the queue's operation counters and
// goroutine/GOMAXPROCS gauges under the meter namespace
// "rpqbench/queue", idempotently. Call once at driver startup.
func InitQueueStats(ctx context.Context) *QueueStats {
	once.Do(func() {
		meter := otel.Meter(meterName, metric.WithInstrumentationVersion(otelruntime.Version()))

		stats := &QueueStats{
			ctx: ctx,
			inserts: lo.Must(meter.Int64Counter(
				"queue.insert.count",
				metric.WithDescription("Number of Insert calls."),
			)),
			deleteMins: lo.Must(meter.Int64Counter(
				"queue.delete_min.count",
				metric.WithDescription("Number of DeleteMin calls."),
			)),
			deleteMinFalls: lo.Must(meter.Int64Counter(
				"queue.delete_min.fallback_count",
				metric.WithDescription("Number of DeleteMin calls satisfied by the exact fallback scan rather than the spray descent."),
			)),
			peeks: lo.Must(meter.Int64Counter(
				"queue.peek_min.count",
				metric.WithDescription("Number of PeekMin calls."),
			)),
			goroutines: lo.Must(meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription("The driver process's goroutine count."),
				metric.WithInt64Callback(func(_ context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must(meter.Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription("The driver process's GOMAXPROCS setting."),
				metric.WithInt64Callback(func(_ context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
		}
		stats.queueLen = lo.Must(meter.Int64ObservableUpDownCounter(
			"queue.len",
			metric.WithDescription("Advisory live-key count, as last reported via SetLen."),
			metric.WithInt64Callback(func(_ context.Context, ob metric.Int64Observer) error {
				ob.Observe(stats.length.Load())
				return nil
			}),
		))

		_ = otelruntime.Start()
		stats.waitForShutdown()
		current.Store(stats)
	})
	return current.Load()
}
