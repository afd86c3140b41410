package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/message"
)

const roundColumns = `run_id, device_id, round, export, result, neighbors, published, received, started_at, duration_ns`

// Filter selects rounds. Zero fields match everything.
type Filter struct {
	RunID  string
	Device *message.DeviceID
	Limit  int
}

// RunSummary describes one recorded run.
type RunSummary struct {
	RunID     string
	Devices   int
	Rounds    int // Highest round recorded plus one
	StartedAt time.Time
}

// ReadRounds returns the rounds matching f.
// Results are ordered by run_id, device_id, round.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadRounds(ctx context.Context, f Filter) ([]Round, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Device != nil {
		where = append(where, "device_id = ?")
		args = append(args, int64(*f.Device))
	}

	query := "SELECT " + roundColumns + " FROM rounds"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY run_id COLLATE BINARY ASC, device_id ASC, round ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return s.queryRounds(ctx, query, args...)
}

// LatestRounds returns the most recent round of every device in a run,
// ordered by device.
func (s *Store) LatestRounds(ctx context.Context, runID string) ([]Round, error) {
	return s.queryRounds(ctx, `
		SELECT `+roundColumns+`
		FROM rounds r
		WHERE r.run_id = ?
		  AND r.round = (
			SELECT MAX(round) FROM rounds
			WHERE run_id = r.run_id AND device_id = r.device_id
		  )
		ORDER BY r.device_id ASC
	`, runID)
}

// Runs lists recorded runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, COUNT(DISTINCT device_id), MAX(round) + 1, MIN(started_at)
		FROM rounds
		GROUP BY run_id
		ORDER BY MIN(started_at) ASC, run_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			rs      RunSummary
			started int64
		)
		if err := rows.Scan(&rs.RunID, &rs.Devices, &rs.Rounds, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.StartedAt = time.Unix(0, started).UTC()
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRunID returns the most recently started run.
// Returns sql.ErrNoRows if the store is empty.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM rounds
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) queryRounds(ctx context.Context, query string, args ...any) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	rounds := []Round{}
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return rounds, nil
}

func scanRound(rows *sql.Rows) (Round, error) {
	var (
		r             Round
		device        int64
		round         int64
		exportJSON    string
		neighborsJSON string
		started       int64
		duration      int64
	)
	err := rows.Scan(
		&r.RunID,
		&device,
		&round,
		&exportJSON,
		&r.Result,
		&neighborsJSON,
		&r.Published,
		&r.Received,
		&started,
		&duration,
	)
	if err != nil {
		return Round{}, fmt.Errorf("scan round: %w", err)
	}

	var exp export.Export
	if err := exp.UnmarshalJSON([]byte(exportJSON)); err != nil {
		return Round{}, fmt.Errorf("unmarshal export of round %d device %d: %w", round, device, err)
	}
	nbrs, err := unmarshalNeighbors(neighborsJSON)
	if err != nil {
		return Round{}, err
	}

	r.Device = message.DeviceID(device)
	r.Round = uint64(round)
	r.Export = exp
	r.Neighbors = nbrs
	r.StartedAt = time.Unix(0, started).UTC()
	r.Duration = time.Duration(duration)
	return r, nil
}
