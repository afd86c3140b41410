package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/network"
)

// Platform runs the execution cycle of one device.
//
// CRITICAL: Step and Run must be called from exactly one goroutine. The
// mailbox, the network and the evaluation context are touched only there.
type Platform struct {
	self    message.DeviceID
	mailbox mailbox.Mailbox
	network network.Network
	eval    Evaluator
	evalCtx Context

	interval             time.Duration
	clock                Clock
	hooks                []Hook
	maxTransportFailures int
	runID                string
	runIDGen             RunIDGenerator

	// Loop-owned state.
	neighbors         map[message.DeviceID]struct{}
	unsubscribed      map[message.DeviceID]struct{} // Neighbors whose subscription has not succeeded yet
	started           bool
	round             uint64
	transportFailures int // Consecutive cycles with a transport fault

	state atomic.Int32

	// Neighbor changes requested from other goroutines.
	mu      sync.Mutex
	changes []neighborChange
}

type neighborChange struct {
	id  message.DeviceID
	add bool
}

// New creates a platform for device self.
func New(
	self message.DeviceID,
	mb mailbox.Mailbox,
	nw network.Network,
	eval Evaluator,
	opts ...Option,
) *Platform {
	p := &Platform{
		self:         self,
		mailbox:      mb,
		network:      nw,
		eval:         eval,
		evalCtx:      Context{Self: self},
		interval:     DefaultInterval,
		clock:        systemClock{},
		runIDGen:     UUIDv7Generator{},
		neighbors:    make(map[message.DeviceID]struct{}),
		unsubscribed: make(map[message.DeviceID]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = p.runIDGen.Generate()
	}
	return p
}

// Self returns the device identifier.
func (p *Platform) Self() message.DeviceID {
	return p.self
}

// RunID returns the identifier recorded in every report of this platform.
func (p *Platform) RunID() string {
	return p.runID
}

// State returns the current phase. Safe from any goroutine.
func (p *Platform) State() State {
	return State(p.state.Load())
}

// Round returns the number of completed cycles.
func (p *Platform) Round() uint64 {
	return p.round
}

// Neighbors returns the current neighbor set, sorted.
func (p *Platform) Neighbors() []message.DeviceID {
	return slices.Sorted(maps.Keys(p.neighbors))
}

// AddNeighbor schedules a subscription to id. It takes effect at the start
// of the next cycle. Safe from any goroutine.
func (p *Platform) AddNeighbor(id message.DeviceID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, neighborChange{id: id, add: true})
}

// RemoveNeighbor schedules removal of id: its subscription, buffered
// messages and neighbor sensor readings are dropped at the start of the
// next cycle. Safe from any goroutine.
func (p *Platform) RemoveNeighbor(id message.DeviceID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, neighborChange{id: id, add: false})
}

// Start subscribes to every neighbor.
//
// Transient subscription failures are logged and retried at the start of
// each cycle. Only ErrClosed and context cancellation are returned.
func (p *Platform) Start(ctx context.Context) error {
	if p.started {
		return nil
	}

	slog.Info("platform starting",
		"device", p.self,
		"run_id", p.runID,
		"policy", p.mailbox.Policy(),
		"neighbors", len(p.neighbors),
		"interval", p.interval,
	)

	for _, id := range p.Neighbors() {
		p.unsubscribed[id] = struct{}{}
	}
	if err := p.subscribePending(ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

// Step executes exactly one cycle and returns its report. It starts the
// platform first if Start has not been called.
//
// A non-nil error is fatal (ErrClosed, EvaluatorError, too many transport
// failures) or is the context's error.
func (p *Platform) Step(ctx context.Context) (Report, error) {
	defer p.setState(Idle)

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if err := p.Start(ctx); err != nil {
		return Report{}, err
	}
	if err := p.applyChanges(ctx); err != nil {
		return Report{}, err
	}
	if err := p.subscribePending(ctx); err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:     p.runID,
		Device:    p.self,
		Round:     p.round,
		StartedAt: p.clock.Now(),
	}
	start := time.Now()

	// 1. Snapshot
	p.setState(CollectingSnapshot)
	states := p.mailbox.Messages().AsStates()
	report.Neighbors = slices.Sorted(maps.Keys(states))
	p.evalCtx = p.evalCtx.WithStates(states)

	slog.Debug("snapshot collected",
		"device", p.self,
		"round", p.round,
		"neighbors", len(states),
		"buffered", p.mailbox.Len(),
	)

	// 2. Evaluate
	p.setState(Evaluating)
	exp, result, err := p.eval(p.evalCtx)
	if err != nil {
		slog.Error("evaluation failed", "device", p.self, "round", p.round, "error", err)
		return report, &EvaluatorError{Device: p.self, Round: p.round, Err: err}
	}
	report.Export = exp
	report.Result = result

	// 3. Publish
	p.setState(Publishing)
	msg := message.New(p.self, exp, p.clock.Now())
	payload, err := message.Encode(msg)
	if err != nil {
		return report, &EvaluatorError{Device: p.self, Round: p.round, Err: err}
	}

	var transportErr error
	if err := p.network.Broadcast(ctx, p.self, payload); err != nil {
		if fatal := p.classify(ctx, "broadcast", err); fatal != nil {
			return report, fatal
		}
		transportErr = err
	} else {
		report.Published = true
	}

	// 4. Ingest
	p.setState(AwaitingUpdate)
	update, err := p.network.Receive(ctx)
	switch {
	case err != nil:
		if fatal := p.classify(ctx, "receive", err); fatal != nil {
			return report, fatal
		}
		transportErr = err
	case update.HasPayload():
		report.Received = p.ingest(update)
	}

	if transportErr != nil {
		p.transportFailures++
		if p.maxTransportFailures > 0 && p.transportFailures >= p.maxTransportFailures {
			return report, fmt.Errorf("device %d: %d consecutive cycles with transport faults: %w",
				p.self, p.transportFailures, transportErr)
		}
	} else {
		p.transportFailures = 0
	}

	report.Duration = time.Since(start)
	p.round++

	slog.Info("round completed",
		"device", p.self,
		"round", report.Round,
		"value", rootValue(exp),
		"neighbors", len(report.Neighbors),
		"published", report.Published,
		"received", report.Received,
	)

	p.runHooks(ctx, report)
	return report, nil
}

// Run starts the platform and executes cycles until ctx is cancelled or a
// fatal error occurs. It returns ctx.Err() on cancellation.
func (p *Platform) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(p.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		if _, err := p.Step(ctx); err != nil {
			if ctx.Err() == nil {
				slog.Error("platform stopping", "device", p.self, "round", p.round, "error", err)
			}
			return err
		}

		p.setState(Sleeping)
		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			p.setState(Idle)
			slog.Info("platform stopping: context cancelled", "device", p.self, "rounds", p.round)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close closes the network.
func (p *Platform) Close() error {
	return p.network.Close()
}

// classify returns a non-nil error if err must stop the loop. Transient
// transport errors are logged and swallowed.
func (p *Platform) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, network.ErrClosed) {
		slog.Error("network closed", "device", p.self, "op", op)
		return fmt.Errorf("device %d %s: %w", p.self, op, err)
	}
	slog.Warn("transport fault, retrying next cycle",
		"device", p.self,
		"round", p.round,
		"op", op,
		"error", err,
	)
	return nil
}

// ingest decodes update and enqueues it. Malformed payloads are dropped.
func (p *Platform) ingest(update network.Update) bool {
	msg, err := message.Decode(update.Payload)
	if err != nil {
		slog.Warn("dropping malformed payload",
			"device", p.self,
			"topic", update.Topic,
			"error", err,
		)
		return false
	}
	p.mailbox.Enqueue(msg)

	slog.Debug("update enqueued", "device", p.self, "from", msg.Source(), "at", msg.Timestamp())
	return true
}

func (p *Platform) applyChanges(ctx context.Context) error {
	p.mu.Lock()
	changes := p.changes
	p.changes = nil
	p.mu.Unlock()

	for _, c := range changes {
		if c.add {
			if _, ok := p.neighbors[c.id]; ok {
				continue
			}
			p.neighbors[c.id] = struct{}{}
			p.unsubscribed[c.id] = struct{}{}
			slog.Info("neighbor added", "device", p.self, "neighbor", c.id)
			continue
		}

		if _, ok := p.neighbors[c.id]; !ok {
			continue
		}
		delete(p.neighbors, c.id)
		delete(p.unsubscribed, c.id)
		p.mailbox.Remove(c.id)
		p.evalCtx.Neighbor.Remove(c.id)
		if err := p.network.Unsubscribe(ctx, c.id); err != nil {
			if fatal := p.classify(ctx, "unsubscribe", err); fatal != nil {
				return fatal
			}
		}
		slog.Info("neighbor removed", "device", p.self, "neighbor", c.id)
	}
	return nil
}

func (p *Platform) subscribePending(ctx context.Context) error {
	for _, id := range slices.Sorted(maps.Keys(p.unsubscribed)) {
		if err := p.network.Subscribe(ctx, id); err != nil {
			if fatal := p.classify(ctx, "subscribe", err); fatal != nil {
				return fatal
			}
			continue
		}
		delete(p.unsubscribed, id)
	}
	return nil
}

func (p *Platform) runHooks(ctx context.Context, r Report) {
	for _, h := range p.hooks {
		if err := h(ctx, r); err != nil {
			slog.Warn("round hook failed", "device", p.self, "round", r.Round, "error", err)
		}
	}
}

func (p *Platform) setState(s State) {
	p.state.Store(int32(s))
}

func rootValue(e export.Export) string {
	v, _ := e.Root()
	return export.FormatValue(v)
}
