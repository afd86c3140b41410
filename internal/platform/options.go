package platform

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/sensor"
)

// DefaultInterval is the default sleep between rounds.
const DefaultInterval = 2 * time.Second

// Clock supplies message timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// RunIDGenerator generates identifiers that tag the rounds of one run.
// Implemented by UUIDv7Generator (production) and
// testutil.FixedRunIDGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a Platform.
type Option func(*Platform)

// WithInterval sets the sleep between rounds.
//
// Default: 2s (DefaultInterval)
func WithInterval(d time.Duration) Option {
	return func(p *Platform) {
		p.interval = d
	}
}

// WithLocalSensors sets the device's own sensor readings.
func WithLocalSensors(local sensor.Local) Option {
	return func(p *Platform) {
		p.evalCtx.Local = local.Clone()
	}
}

// WithNeighborSensors sets neighbor-indexed sensor readings.
func WithNeighborSensors(nbr sensor.Neighbor) Option {
	return func(p *Platform) {
		p.evalCtx.Neighbor = nbr.Clone()
	}
}

// WithNeighbors sets the static neighbor set. A device may list itself to
// receive its own exports.
func WithNeighbors(ids ...message.DeviceID) Option {
	return func(p *Platform) {
		for _, id := range ids {
			p.neighbors[id] = struct{}{}
		}
	}
}

// WithClock sets the timestamp source. Default: wall clock.
func WithClock(c Clock) Option {
	return func(p *Platform) {
		p.clock = c
	}
}

// WithHook registers a hook run after every completed cycle.
func WithHook(h Hook) Option {
	return func(p *Platform) {
		p.hooks = append(p.hooks, h)
	}
}

// WithMaxTransportFailures stops the loop after n consecutive cycles with
// a transport fault.
//
// Default: 0 (never stop on transient faults)
func WithMaxTransportFailures(n int) Option {
	return func(p *Platform) {
		p.maxTransportFailures = n
	}
}

// WithRunID fixes the run ID recorded in reports.
func WithRunID(id string) Option {
	return func(p *Platform) {
		p.runID = id
	}
}

// WithRunIDGenerator sets the generator used when no run ID is fixed.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(p *Platform) {
		p.runIDGen = g
	}
}
