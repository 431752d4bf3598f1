package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendCSVWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	res := &Result{
		Threads:             4,
		DurationSeconds:     1.5,
		Operations:          1000,
		ThroughputOpsPerSec: 666.67,
		SuccessRate:         0.98,
		InsertCount:         500,
		DeleteCount:         400,
		PeekCount:           100,
	}

	require.NoError(t, appendCSV(path, res))
	require.NoError(t, appendCSV(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, csvHeader, lines[0]+"\n")
	require.Contains(t, lines[1], "4,1.500000,1000")
	require.Contains(t, lines[2], "4,1.500000,1000")
}
