package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/maschad/spray"
	"github.com/maschad/spray/lib/xrand"
	"github.com/maschad/spray/observability"
)

// Result is one CSV row; its field order matches the driver's
// documented column order exactly: threads, duration_seconds,
// operations, throughput_ops_per_sec, success_rate, insert_count,
// delete_count, peek_count.
type Result struct {
	Threads             int
	DurationSeconds     float64
	Operations          int64
	ThroughputOpsPerSec float64
	SuccessRate         float64
	InsertCount         int64
	DeleteCount         int64
	PeekCount           int64
}

type workerCounters struct {
	inserts int64
	deletes int64
	peeks   int64
	hits    int64
}

// runBenchmark drives q with cfg.Threads workers through an
// update-pct-weighted mix of Insert/DeleteMin/PeekMin, stopping after
// --total-ops operations when that is nonzero (--duration is then not
// applied), otherwise after --duration.
func runBenchmark(ctx context.Context, q *spray.Queue[int, string], cfg *Config, pool *ants.Pool) (*Result, error) {
	var nextKey atomic.Int64
	for i := 0; i < cfg.InitialSize; i++ {
		q.Insert(i, "seed")
	}
	nextKey.Store(int64(cfg.InitialSize))

	runCtx := ctx
	if cfg.TotalOps == 0 && cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	var opsRemaining atomic.Int64
	opsRemaining.Store(int64(cfg.TotalOps))

	counters := make([]workerCounters, cfg.Threads)
	done := make(chan struct{}, cfg.Threads)
	start := time.Now()

	for w := 0; w < cfg.Threads; w++ {
		c := &counters[w]
		task := func() {
			defer func() { done <- struct{}{} }()
			rng := xrand.NewSource()
			for {
				select {
				case <-runCtx.Done():
					return
				default:
				}
				if cfg.TotalOps > 0 && opsRemaining.Add(-1) < 0 {
					return
				}
				step(q, cfg, rng, c, &nextKey)
				observability.Current().SetLen(q.Len())
			}
		}
		if pool != nil {
			_ = pool.Submit(task)
		} else {
			go task()
		}
	}

	for w := 0; w < cfg.Threads; w++ {
		<-done
	}
	elapsed := time.Since(start)

	res := &Result{Threads: cfg.Threads, DurationSeconds: elapsed.Seconds()}
	for _, c := range counters {
		res.InsertCount += c.inserts
		res.DeleteCount += c.deletes
		res.PeekCount += c.peeks
		res.Operations += c.inserts + c.deletes + c.peeks
	}
	if elapsed > 0 {
		res.ThroughputOpsPerSec = float64(res.Operations) / elapsed.Seconds()
	}
	var hits int64
	for _, c := range counters {
		hits += c.hits
	}
	if res.Operations > 0 {
		res.SuccessRate = float64(hits) / float64(res.Operations)
	}
	return res, nil
}

// step performs a single weighted operation: DeleteMin for the first
// cfg.UpdatePct percent of the roll, PeekMin for the next 10 percent,
// Insert otherwise.
func step(q *spray.Queue[int, string], cfg *Config, rng *xrand.Source, c *workerCounters, nextKey *atomic.Int64) {
	roll := rng.IntN(100)
	stats := observability.Current()
	switch {
	case roll < cfg.UpdatePct:
		_, _, ok, viaFallback := q.DeleteMin()
		c.deletes++
		if ok {
			c.hits++
		}
		stats.RecordDeleteMin(context.Background(), viaFallback)
	case roll < cfg.UpdatePct+10:
		_, _, ok := q.PeekMin()
		c.peeks++
		if ok {
			c.hits++
		}
		stats.RecordPeek(context.Background())
	default:
		k := int(nextKey.Add(1))
		if q.Insert(k, "v") {
			c.hits++
		}
		c.inserts++
		stats.RecordInsert(context.Background())
	}
}
