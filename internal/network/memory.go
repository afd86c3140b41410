package network

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/fieldnet/internal/message"
)

// Broker is an in-process topic registry. Publishing on a topic offers the
// payload to the inbox of every network subscribed to it.
//
// Thread-safety: all methods are safe for concurrent use.
type Broker struct {
	topics      Topics
	inboxSize   int
	receiveWait time.Duration

	mu     sync.RWMutex
	subs   map[string]map[*MemoryNetwork]struct{}
	nets   map[*MemoryNetwork]struct{}
	closed bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithTopics sets the topic mapping. Default: DefaultTopicPrefix.
func WithTopics(t Topics) BrokerOption {
	return func(b *Broker) {
		b.topics = t
	}
}

// WithInboxSize sets the inbox capacity of every connected network.
func WithInboxSize(n int) BrokerOption {
	return func(b *Broker) {
		b.inboxSize = n
	}
}

// WithReceiveWait sets how long Receive waits for a payload before
// returning NoUpdate. Default: 0 (poll).
func WithReceiveWait(d time.Duration) BrokerOption {
	return func(b *Broker) {
		b.receiveWait = d
	}
}

// NewBroker creates an empty broker.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		topics:    Topics{Prefix: DefaultTopicPrefix},
		inboxSize: DefaultInboxSize,
		subs:      make(map[string]map[*MemoryNetwork]struct{}),
		nets:      make(map[*MemoryNetwork]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Topics returns the broker's topic mapping.
func (b *Broker) Topics() Topics {
	return b.topics
}

// Connect attaches a new network for device self.
func (b *Broker) Connect(self message.DeviceID) (*MemoryNetwork, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	n := &MemoryNetwork{
		broker: b,
		self:   self,
		inbox:  NewInbox(b.inboxSize),
		wait:   b.receiveWait,
		subs:   make(map[string]struct{}),
	}
	b.nets[n] = struct{}{}
	return n, nil
}

// Close closes every connected network. Later calls to Connect fail with
// ErrClosed.
func (b *Broker) Close() {
	b.mu.Lock()
	nets := make([]*MemoryNetwork, 0, len(b.nets))
	for n := range b.nets {
		nets = append(nets, n)
	}
	b.closed = true
	b.mu.Unlock()

	for _, n := range nets {
		_ = n.Close()
	}
}

// Subscribers returns how many networks are subscribed to topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Broker) subscribe(topic string, n *MemoryNetwork) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*MemoryNetwork]struct{})
		b.subs[topic] = set
	}
	set[n] = struct{}{}
}

func (b *Broker) unsubscribe(topic string, n *MemoryNetwork) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.subs[topic]
	delete(set, n)
	if len(set) == 0 {
		delete(b.subs, topic)
	}
}

func (b *Broker) detach(n *MemoryNetwork) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, set := range b.subs {
		delete(set, n)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
	delete(b.nets, n)
}

// publish fans payload out to the subscribers of topic and returns how
// many accepted it.
func (b *Broker) publish(topic string, payload []byte) int {
	b.mu.RLock()
	targets := make([]*MemoryNetwork, 0, len(b.subs[topic]))
	for n := range b.subs[topic] {
		targets = append(targets, n)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, n := range targets {
		// Each subscriber gets its own copy.
		p := make([]byte, len(payload))
		copy(p, payload)
		if n.inbox.Offer(Update{Topic: topic, Payload: p}) {
			delivered++
		}
	}
	return delivered
}

// MemoryNetwork is a Network attached to an in-process Broker.
type MemoryNetwork struct {
	broker *Broker
	self   message.DeviceID
	inbox  *Inbox
	wait   time.Duration

	mu     sync.Mutex
	subs   map[string]struct{}
	closed bool
}

var _ Network = (*MemoryNetwork)(nil)

// Subscribe implements Network.
func (n *MemoryNetwork) Subscribe(ctx context.Context, neighbor message.DeviceID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	topic := n.broker.topics.For(neighbor)
	if _, ok := n.subs[topic]; ok {
		return nil
	}
	n.broker.subscribe(topic, n)
	n.subs[topic] = struct{}{}

	slog.Debug("subscribed", "device", n.self, "topic", topic)
	return nil
}

// Unsubscribe implements Network.
func (n *MemoryNetwork) Unsubscribe(ctx context.Context, neighbor message.DeviceID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	topic := n.broker.topics.For(neighbor)
	if _, ok := n.subs[topic]; !ok {
		return nil
	}
	n.broker.unsubscribe(topic, n)
	delete(n.subs, topic)

	slog.Debug("unsubscribed", "device", n.self, "topic", topic)
	return nil
}

// Broadcast implements Network.
func (n *MemoryNetwork) Broadcast(ctx context.Context, self message.DeviceID, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.isClosed() {
		return ErrClosed
	}

	topic := n.broker.topics.For(self)
	delivered := n.broker.publish(topic, payload)

	slog.Debug("published", "device", self, "topic", topic, "size", len(payload), "delivered", delivered)
	return nil
}

// Receive implements Network.
func (n *MemoryNetwork) Receive(ctx context.Context) (Update, error) {
	if n.isClosed() {
		return NoUpdate, ErrClosed
	}
	return n.inbox.Receive(ctx, n.wait)
}

// Close implements Network.
func (n *MemoryNetwork) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.broker.detach(n)
	n.inbox.Close()
	return nil
}

// Inbox exposes the hand-off queue for monitoring.
func (n *MemoryNetwork) Inbox() *Inbox {
	return n.inbox
}

func (n *MemoryNetwork) String() string {
	return fmt.Sprintf("memory(%d)", n.self)
}

func (n *MemoryNetwork) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}
