package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Threads)
	require.Equal(t, 10*time.Second, cfg.Duration)
	require.Equal(t, 50, cfg.UpdatePct)
}

func TestParseFlagsRejectsInvalidThreads(t *testing.T) {
	_, err := parseFlags([]string{"--threads", "0"})
	require.Error(t, err)
}

func TestParseFlagsRejectsOutOfRangeUpdatePct(t *testing.T) {
	_, err := parseFlags([]string{"--update-pct", "150"})
	require.Error(t, err)
}

func TestParseFlagsAggregatesMultipleErrors(t *testing.T) {
	_, err := parseFlags([]string{"--threads", "0", "--update-pct", "-5", "--duration", "0"})
	require.Error(t, err)
	// multierr.Append chains each validate() failure into one error
	// whose message contains every individual cause.
	require.Contains(t, err.Error(), "--threads")
	require.Contains(t, err.Error(), "--update-pct")
	require.Contains(t, err.Error(), "duration")
}

func TestParseFlagsAllowsTotalOpsWithoutDuration(t *testing.T) {
	cfg, err := parseFlags([]string{"--duration", "0", "--total-ops", "1000"})
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.TotalOps)
}
