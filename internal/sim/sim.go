// Package sim runs a whole deployment in one process: one platform per
// device, all attached to an in-memory broker and stepped in lock-step.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/roach88/fieldnet/internal/gradient"
	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/network"
	"github.com/roach88/fieldnet/internal/platform"
	"github.com/roach88/fieldnet/internal/sensor"
	"github.com/roach88/fieldnet/internal/topology"
)

// DefaultRounds is enough for the gradient to settle on small topologies.
const DefaultRounds = 20

// Config describes a simulation.
type Config struct {
	Topology    topology.Topology
	Sources     []message.DeviceID
	Rounds      int
	Policy      mailbox.Policy
	IncludeSelf bool // Every device also subscribes to its own topic

	Evaluator platform.Evaluator // Default: gradient.Evaluate
	Hooks     []platform.Hook
	RunID     string
	Clock     platform.Clock // Default: a logical clock ticking 1ms per read
}

// Result holds the outcome of a simulation.
type Result struct {
	RunID  string
	Rounds int
	Values map[message.DeviceID]float64   // Last result per device
	Trace  map[message.DeviceID][]float64 // Result per device per round
}

// Devices returns the simulated devices, sorted.
func (r *Result) Devices() []message.DeviceID {
	ids := make([]message.DeviceID, 0, len(r.Values))
	for id := range r.Values {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Config) validate() error {
	if len(c.Topology) == 0 {
		return errors.New("simulation needs at least one device")
	}
	if c.Rounds < 0 {
		return fmt.Errorf("invalid round count %d", c.Rounds)
	}
	for _, s := range c.Sources {
		if _, ok := c.Topology[s]; !ok {
			return fmt.Errorf("source %d is not in the topology", s)
		}
	}
	if _, err := mailbox.New(c.Policy); err != nil {
		return err
	}
	return nil
}

// Run executes the simulation.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Rounds == 0 {
		cfg.Rounds = DefaultRounds
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = gradient.Evaluate
	}
	if cfg.Clock == nil {
		cfg.Clock = newLogicalClock(time.Now())
	}
	if cfg.RunID == "" {
		cfg.RunID = platform.UUIDv7Generator{}.Generate()
	}

	devices := cfg.Topology.Devices()

	// Every device consumes one update per round but may receive one per
	// neighbor per round; size inboxes so nothing is dropped.
	maxDegree := 1
	for _, id := range devices {
		maxDegree = max(maxDegree, len(cfg.Topology[id])+1)
	}
	broker := network.NewBroker(network.WithInboxSize(maxDegree*(cfg.Rounds+1) + 1))
	defer broker.Close()

	platforms := make([]*platform.Platform, 0, len(devices))
	for _, id := range devices {
		p, err := newDevice(broker, cfg, id)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}

	// Subscribe everyone before the first publication.
	for _, p := range platforms {
		if err := p.Start(ctx); err != nil {
			return nil, fmt.Errorf("start device %d: %w", p.Self(), err)
		}
	}

	slog.Info("simulation starting",
		"run_id", cfg.RunID,
		"devices", len(devices),
		"sources", cfg.Sources,
		"rounds", cfg.Rounds,
		"policy", cfg.Policy,
	)

	res := &Result{
		RunID:  cfg.RunID,
		Rounds: cfg.Rounds,
		Values: make(map[message.DeviceID]float64, len(devices)),
		Trace:  make(map[message.DeviceID][]float64, len(devices)),
	}
	for round := 0; round < cfg.Rounds; round++ {
		for _, p := range platforms {
			report, err := p.Step(ctx)
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", round, err)
			}
			v := resultValue(report.Result)
			res.Values[p.Self()] = v
			res.Trace[p.Self()] = append(res.Trace[p.Self()], v)
		}
	}

	slog.Info("simulation completed", "run_id", cfg.RunID, "rounds", cfg.Rounds)
	return res, nil
}

func newDevice(broker *network.Broker, cfg Config, id message.DeviceID) (*platform.Platform, error) {
	nw, err := broker.Connect(id)
	if err != nil {
		return nil, err
	}
	mb, err := mailbox.New(cfg.Policy)
	if err != nil {
		return nil, err
	}

	nbrs := cfg.Topology.Neighbors(id)
	if cfg.IncludeSelf && !slices.Contains(nbrs, id) {
		nbrs = append(nbrs, id)
	}
	ranges := cfg.Topology.Ranges(id)
	if cfg.IncludeSelf {
		ranges.Set(sensor.NbrRange, id, sensor.Number(0))
	}

	opts := []platform.Option{
		platform.WithNeighbors(nbrs...),
		platform.WithLocalSensors(sensor.Local{
			sensor.Source: sensor.Bool(slices.Contains(cfg.Sources, id)),
		}),
		platform.WithNeighborSensors(ranges),
		platform.WithClock(cfg.Clock),
		platform.WithRunID(cfg.RunID),
		platform.WithInterval(0),
	}
	for _, h := range cfg.Hooks {
		opts = append(opts, platform.WithHook(h))
	}
	return platform.New(id, mb, nw, cfg.Evaluator, opts...), nil
}

func resultValue(r any) float64 {
	switch v := r.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return math.NaN()
	}
}

// logicalClock hands out strictly increasing timestamps so that the
// time-ordered mailbox policies see a total order across devices.
type logicalClock struct {
	mu   sync.Mutex
	base time.Time
	n    int64
}

func newLogicalClock(base time.Time) *logicalClock {
	return &logicalClock{base: base}
}

func (c *logicalClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * time.Millisecond)
}
