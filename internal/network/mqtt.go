package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/roach88/fieldnet/internal/message"
)

// MQTT defaults.
const (
	DefaultKeepAlive      = 5 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultOpTimeout      = 5 * time.Second
	disconnectQuiesceMS   = 250
)

var errNotConnected = errors.New("not connected to broker")

// MQTTConfig configures an MQTTNetwork.
type MQTTConfig struct {
	Broker         string // e.g. tcp://localhost:1883
	Device         message.DeviceID
	Topics         Topics
	QoS            byte
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	OpTimeout      time.Duration // Per subscribe/publish token
	InboxSize      int
	ReceiveWait    time.Duration
	ClientID       string // Generated when empty
}

func (c *MQTTConfig) setDefaults() {
	if c.Topics.Prefix == "" {
		c.Topics.Prefix = DefaultTopicPrefix
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = DefaultOpTimeout
	}
	if c.ClientID == "" {
		c.ClientID = fmt.Sprintf("fieldnet-%d-%s", c.Device, uuid.NewString()[:8])
	}
}

func (c *MQTTConfig) validate() error {
	if c.Broker == "" {
		return errors.New("mqtt: broker address is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt: invalid qos %d", c.QoS)
	}
	return c.Topics.Validate()
}

// MQTTNetwork is a Network backed by an MQTT broker.
//
// The paho client delivers inbound publications on its own router
// goroutine; onMessage offers them to the inbox without blocking, which
// keeps the client's event loop drained while the platform samples the
// inbox once per round.
type MQTTNetwork struct {
	cfg    MQTTConfig
	client mqtt.Client
	inbox  *Inbox

	mu     sync.Mutex
	subs   map[string]struct{}
	closed bool
}

var _ Network = (*MQTTNetwork)(nil)

// DialMQTT connects to the broker named in cfg.
func DialMQTT(ctx context.Context, cfg MQTTConfig) (*MQTTNetwork, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := newMQTTNetwork(nil, cfg)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetOnConnectHandler(n.onConnect).
		SetConnectionLostHandler(n.onConnectionLost)
	n.client = mqtt.NewClient(opts)

	slog.Info("connecting to mqtt broker", "broker", cfg.Broker, "client_id", cfg.ClientID)

	if err := waitToken(ctx, n.client.Connect(), cfg.ConnectTimeout); err != nil {
		return nil, &TransportError{Op: "connect", Topic: cfg.Broker, Err: err}
	}
	return n, nil
}

// newMQTTNetwork wraps an existing client.
func newMQTTNetwork(client mqtt.Client, cfg MQTTConfig) *MQTTNetwork {
	cfg.setDefaults()
	return &MQTTNetwork{
		cfg:    cfg,
		client: client,
		inbox:  NewInbox(cfg.InboxSize),
		subs:   make(map[string]struct{}),
	}
}

// Subscribe implements Network.
func (n *MQTTNetwork) Subscribe(ctx context.Context, neighbor message.DeviceID) error {
	topic := n.cfg.Topics.For(neighbor)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	if _, ok := n.subs[topic]; ok {
		return nil
	}
	if !n.client.IsConnectionOpen() {
		return &TransportError{Op: "subscribe", Topic: topic, Err: errNotConnected}
	}

	tok := n.client.Subscribe(topic, n.cfg.QoS, n.onMessage)
	if err := waitToken(ctx, tok, n.cfg.OpTimeout); err != nil {
		return &TransportError{Op: "subscribe", Topic: topic, Err: err}
	}
	n.subs[topic] = struct{}{}

	slog.Debug("subscribed", "device", n.cfg.Device, "topic", topic, "qos", n.cfg.QoS)
	return nil
}

// Unsubscribe implements Network.
func (n *MQTTNetwork) Unsubscribe(ctx context.Context, neighbor message.DeviceID) error {
	topic := n.cfg.Topics.For(neighbor)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	if _, ok := n.subs[topic]; !ok {
		return nil
	}
	if !n.client.IsConnectionOpen() {
		return &TransportError{Op: "unsubscribe", Topic: topic, Err: errNotConnected}
	}

	if err := waitToken(ctx, n.client.Unsubscribe(topic), n.cfg.OpTimeout); err != nil {
		return &TransportError{Op: "unsubscribe", Topic: topic, Err: err}
	}
	delete(n.subs, topic)

	slog.Debug("unsubscribed", "device", n.cfg.Device, "topic", topic)
	return nil
}

// Broadcast implements Network.
func (n *MQTTNetwork) Broadcast(ctx context.Context, self message.DeviceID, payload []byte) error {
	topic := n.cfg.Topics.For(self)

	if n.isClosed() {
		return ErrClosed
	}
	if !n.client.IsConnectionOpen() {
		return &TransportError{Op: "publish", Topic: topic, Err: errNotConnected}
	}

	tok := n.client.Publish(topic, n.cfg.QoS, false, payload)
	if err := waitToken(ctx, tok, n.cfg.OpTimeout); err != nil {
		return &TransportError{Op: "publish", Topic: topic, Err: err}
	}
	return nil
}

// Receive implements Network.
func (n *MQTTNetwork) Receive(ctx context.Context) (Update, error) {
	if n.isClosed() {
		return NoUpdate, ErrClosed
	}
	return n.inbox.Receive(ctx, n.cfg.ReceiveWait)
}

// Close disconnects from the broker.
func (n *MQTTNetwork) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.client.Disconnect(disconnectQuiesceMS)
	n.inbox.Close()

	slog.Info("disconnected from mqtt broker", "client_id", n.cfg.ClientID)
	return nil
}

// Inbox exposes the hand-off queue for monitoring.
func (n *MQTTNetwork) Inbox() *Inbox {
	return n.inbox
}

func (n *MQTTNetwork) onMessage(_ mqtt.Client, msg mqtt.Message) {
	p := make([]byte, len(msg.Payload()))
	copy(p, msg.Payload())
	n.inbox.Offer(Update{Topic: msg.Topic(), Payload: p})
}

// onConnect restores subscriptions after a reconnect. Clean sessions drop
// them on the broker side.
func (n *MQTTNetwork) onConnect(c mqtt.Client) {
	n.mu.Lock()
	topics := make([]string, 0, len(n.subs))
	for t := range n.subs {
		topics = append(topics, t)
	}
	n.mu.Unlock()

	slog.Info("connected to mqtt broker", "client_id", n.cfg.ClientID, "resubscribe", len(topics))

	for _, topic := range topics {
		// Runs on the client's callback goroutine: never block on the token.
		tok := c.Subscribe(topic, n.cfg.QoS, n.onMessage)
		go func(topic string) {
			if !tok.WaitTimeout(n.cfg.OpTimeout) || tok.Error() != nil {
				slog.Warn("resubscribe failed", "topic", topic, "error", tok.Error())
			}
		}(topic)
	}
}

func (n *MQTTNetwork) onConnectionLost(_ mqtt.Client, err error) {
	slog.Warn("mqtt connection lost", "client_id", n.cfg.ClientID, "error", err)
}

func (n *MQTTNetwork) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// waitToken waits for tok to complete, honoring ctx and timeout.
func waitToken(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	}
}
