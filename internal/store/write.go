package store

import (
	"context"
	"fmt"

	"github.com/roach88/fieldnet/internal/platform"
)

// WriteRound inserts a round record.
// Uses ON CONFLICT DO NOTHING for idempotency - re-recording the same
// (run, device, round) is silently ignored.
//
// The export is stored as canonical JSON.
func (s *Store) WriteRound(ctx context.Context, r Round) error {
	exportJSON, err := r.Export.MarshalJSON()
	if err != nil {
		return fmt.Errorf("write round: marshal export: %w", err)
	}
	neighborsJSON, err := marshalNeighbors(r.Neighbors)
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds
		(run_id, device_id, round, export, result, neighbors, published, received, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, device_id, round) DO NOTHING
	`,
		r.RunID,
		int64(r.Device),
		int64(r.Round),
		string(exportJSON),
		r.Result,
		neighborsJSON,
		r.Published,
		r.Received,
		r.StartedAt.UnixNano(),
		int64(r.Duration),
	)
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}

	return nil
}

// Hook returns a platform hook that records every completed cycle.
// A completed round is written even if ctx was cancelled while it ran.
func (s *Store) Hook() platform.Hook {
	return func(ctx context.Context, r platform.Report) error {
		return s.WriteRound(context.WithoutCancel(ctx), FromReport(r))
	}
}
