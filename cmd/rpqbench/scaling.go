package main

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/maschad/spray"
	"github.com/maschad/spray/lib/xlog"
)

// runScaling periodically resamples live logical CPU count and feeds
// it to q.SetNumThreads, so the spray descent's width tracks actual
// contention instead of a fixed estimate. It also watches cfg's
// --config file, if set, purely to demonstrate that a long --scaling
// run can observe a live edit without restarting; this driver does
// not currently read any fields back out of it.
func runScaling(ctx context.Context, q *spray.Queue[int, string], cfg *Config, logger xlog.XLogger) {
	var watcher *fsnotify.Watcher
	if cfg.ConfigFile != "" {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err == nil {
			if err := watcher.Add(cfg.ConfigFile); err != nil {
				logger.ErrorStack(err, "rpqbench: failed to watch config file")
				_ = watcher.Close()
				watcher = nil
			}
		} else {
			logger.ErrorStack(err, "rpqbench: failed to create config watcher")
		}
	}
	if watcher != nil {
		defer watcher.Close()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := cpu.CountsWithContext(ctx, true)
			if err != nil {
				continue
			}
			q.SetNumThreads(int32(counts))
		case ev := <-watcherEvents(watcher):
			logger.Info("rpqbench: config file changed", zap.String("event", ev.String()))
		}
	}
}

func watcherEvents(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}
