package main

import (
	"flag"
	"time"

	"go.uber.org/multierr"

	"github.com/maschad/spray/lib/infra"
)

// Config collects the throughput driver's flags, validated as a group
// rather than one-at-a-time so a caller sees every malformed flag in
// a single run.
type Config struct {
	Threads     int
	Duration    time.Duration
	UpdatePct   int
	InitialSize int
	TotalOps    int
	CSVPath     string
	Scaling     bool
	ConfigFile  string
}

func parseFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("rpqbench", flag.ContinueOnError)
	cfg := &Config{}
	fs.IntVar(&cfg.Threads, "threads", 4, "number of concurrent worker goroutines")
	fs.DurationVar(&cfg.Duration, "duration", 10*time.Second, "how long to run (0 disables the time bound; use --total-ops instead)")
	fs.IntVar(&cfg.UpdatePct, "update-pct", 50, "percentage of ops that are DeleteMin (the rest are Insert/PeekMin)")
	fs.IntVar(&cfg.InitialSize, "initial-size", 0, "number of keys to insert before timing starts")
	fs.IntVar(&cfg.TotalOps, "total-ops", 0, "stop after this many ops instead of after --duration; 0 means duration-bound")
	fs.StringVar(&cfg.CSVPath, "csv", "", "write the result row to this CSV file (appends if it exists)")
	fs.BoolVar(&cfg.Scaling, "scaling", false, "periodically resample live CPU count and call SetNumThreads")
	fs.StringVar(&cfg.ConfigFile, "config", "", "optional config file watched for live --scaling schedule edits")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	var errs error
	if cfg.Threads < 1 {
		errs = multierr.Append(errs, infra.NewErrorStack("--threads must be >= 1"))
	}
	if cfg.UpdatePct < 0 || cfg.UpdatePct > 100 {
		errs = multierr.Append(errs, infra.NewErrorStack("--update-pct must be within 0..100"))
	}
	if cfg.InitialSize < 0 {
		errs = multierr.Append(errs, infra.NewErrorStack("--initial-size must be >= 0"))
	}
	if cfg.TotalOps < 0 {
		errs = multierr.Append(errs, infra.NewErrorStack("--total-ops must be >= 0"))
	}
	if cfg.TotalOps == 0 && cfg.Duration <= 0 {
		errs = multierr.Append(errs, infra.NewErrorStack("either --total-ops or a positive --duration is required"))
	}
	return errs
}
