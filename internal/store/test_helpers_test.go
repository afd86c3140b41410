package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/message"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRound creates a round whose root value is v.
func createTestRound(runID string, device message.DeviceID, round uint64, v float64) Round {
	return Round{
		RunID:     runID,
		Device:    device,
		Round:     round,
		Export:    export.Of(export.Float(v), export.NewPath(export.Rep(0))),
		Result:    formatResult(v),
		Neighbors: []message.DeviceID{device + 1},
		Published: true,
		StartedAt: testEpoch.Add(time.Duration(round) * time.Second),
		Duration:  time.Millisecond,
	}
}
