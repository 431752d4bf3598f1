package main

import (
	"fmt"
	"os"
)

var csvHeader = "threads,duration_seconds,operations,throughput_ops_per_sec,success_rate,insert_count,delete_count,peek_count\n"

// appendCSV writes res as one row to path, creating the file (with
// header) if it does not already exist, or appending a bare row if it
// does.
func appendCSV(path string, res *Result) error {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if os.IsNotExist(statErr) {
		if _, err := f.WriteString(csvHeader); err != nil {
			return err
		}
	}
	row := fmt.Sprintf("%d,%.6f,%d,%.2f,%.4f,%d,%d,%d\n",
		res.Threads,
		res.DurationSeconds,
		res.Operations,
		res.ThroughputOpsPerSec,
		res.SuccessRate,
		res.InsertCount,
		res.DeleteCount,
		res.PeekCount,
	)
	_, err = f.WriteString(row)
	return err
}
