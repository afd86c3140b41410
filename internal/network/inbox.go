package network

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInboxSize bounds the hand-off between the transport and the
// platform loop.
const DefaultInboxSize = 64

// Inbox is the bounded hand-off queue between a transport's delivery
// goroutine (producer) and the platform loop (consumer).
//
// Offer never blocks: when the inbox is full the payload is dropped and a
// warning logged. The platform drains at most one update per round, so a
// producer outpacing it loses the newest payloads rather than growing
// memory.
//
// Thread-safety: all methods are safe for concurrent use.
type Inbox struct {
	mu       sync.Mutex
	updates  []Update
	capacity int
	dropped  uint64
	closed   bool
	signal   chan struct{} // Signals availability (buffered, size 1)
}

// NewInbox creates an inbox holding at most capacity updates.
// A non-positive capacity selects DefaultInboxSize.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxSize
	}
	return &Inbox{
		updates:  make([]Update, 0, capacity),
		capacity: capacity,
		signal:   make(chan struct{}, 1),
	}
}

// Offer adds u to the back of the inbox. It returns false if the update
// was dropped because the inbox is full or closed.
func (b *Inbox) Offer(u Update) bool {
	if u.Payload == nil {
		u.Payload = []byte{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if len(b.updates) >= b.capacity {
		b.dropped++
		slog.Warn("inbox full, dropping payload",
			"topic", u.Topic,
			"size", len(u.Payload),
			"capacity", b.capacity,
			"dropped", b.dropped,
		)
		return false
	}

	b.updates = append(b.updates, u)

	// Non-blocking: a buffer of 1 coalesces signals.
	select {
	case b.signal <- struct{}{}:
	default:
	}
	return true
}

// TryReceive removes and returns the oldest update without blocking.
func (b *Inbox) TryReceive() (Update, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.updates) == 0 {
		return NoUpdate, false
	}

	u := b.updates[0]
	b.updates[0] = Update{}
	if len(b.updates) == 1 {
		b.updates = b.updates[:0]
	} else {
		b.updates = b.updates[1:]
	}
	return u, true
}

// Receive returns the oldest update, waiting up to wait for one to arrive.
// It returns NoUpdate when the wait elapses, ctx.Err() when ctx is
// cancelled first and ErrClosed once the inbox is closed and drained.
func (b *Inbox) Receive(ctx context.Context, wait time.Duration) (Update, error) {
	if u, ok := b.TryReceive(); ok {
		return u, nil
	}
	if b.isClosed() {
		return NoUpdate, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return NoUpdate, err
	}
	if wait <= 0 {
		return NoUpdate, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return NoUpdate, ctx.Err()
		case <-timer.C:
			return NoUpdate, nil
		case <-b.signal:
			if u, ok := b.TryReceive(); ok {
				return u, nil
			}
			if b.isClosed() {
				return NoUpdate, ErrClosed
			}
		}
	}
}

// Len returns the number of queued updates.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.updates)
}

// Dropped returns how many updates were rejected because the inbox was full.
func (b *Inbox) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close stops accepting updates and wakes a waiting receiver. Updates
// already queued can still be received.
func (b *Inbox) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.signal)
}

func (b *Inbox) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
