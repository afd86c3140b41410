package network

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToken is a completed token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// pendingToken never completes.
type pendingToken struct{}

func (pendingToken) Wait() bool                     { return false }
func (pendingToken) WaitTimeout(time.Duration) bool { return false }
func (pendingToken) Done() <-chan struct{}          { return nil }
func (pendingToken) Error() error                   { return nil }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records calls and routes publications to its own handlers,
// like a broker with a single client.
type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	handlers     map[string]mqtt.MessageHandler
	published    []published
	unsubscribed []string
	publishErr   error
	subscribeErr error
	hang         bool
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) IsConnected() bool { return c.IsConnectionOpen() }

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Connect() mqtt.Token { return newToken(nil) }

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	if c.hang {
		c.mu.Unlock()
		return pendingToken{}
	}
	if c.publishErr != nil {
		c.mu.Unlock()
		return newToken(c.publishErr)
	}
	p := payload.([]byte)
	c.published = append(c.published, published{topic, qos, retained, p})
	h := c.handlers[topic]
	c.mu.Unlock()

	if h != nil {
		h(c, fakeMessage{topic: topic, payload: p})
	}
	return newToken(nil)
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return newToken(c.subscribeErr)
	}
	c.handlers[topic] = cb
	return newToken(nil)
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, cb mqtt.MessageHandler) mqtt.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, cb)
	}
	return newToken(nil)
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.handlers, t)
		c.unsubscribed = append(c.unsubscribed, t)
	}
	return newToken(nil)
}

func (c *fakeClient) AddRoute(topic string, cb mqtt.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = cb
}

func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func (c *fakeClient) setConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = v
}

func testMQTT(client *fakeClient) *MQTTNetwork {
	return newMQTTNetwork(client, MQTTConfig{
		Broker:    "tcp://test:1883",
		Device:    1,
		QoS:       1,
		OpTimeout: 50 * time.Millisecond,
		InboxSize: 4,
	})
}

func TestMQTTNetwork_BroadcastAndReceive(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	n := testMQTT(client)

	require.NoError(t, n.Subscribe(ctx, 1))
	require.NoError(t, n.Broadcast(ctx, 1, []byte("payload")))

	require.Len(t, client.published, 1)
	assert.Equal(t, "fieldnet/exports/1", client.published[0].topic)
	assert.Equal(t, byte(1), client.published[0].qos)
	assert.False(t, client.published[0].retained)

	u, err := n.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(u.Payload))
	assert.Equal(t, "fieldnet/exports/1", u.Topic)

	u, err = n.Receive(ctx)
	require.NoError(t, err)
	assert.False(t, u.HasPayload())
}

func TestMQTTNetwork_SubscribeIdempotent(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	n := testMQTT(client)

	require.NoError(t, n.Subscribe(ctx, 2))
	client.subscribeErr = errors.New("would fail if called again")
	require.NoError(t, n.Subscribe(ctx, 2))
}

func TestMQTTNetwork_SubscribeFailure(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.subscribeErr = errors.New("not authorized")
	n := testMQTT(client)

	err := n.Subscribe(ctx, 2)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "subscribe", te.Op)
	assert.Equal(t, "fieldnet/exports/2", te.Topic)
}

func TestMQTTNetwork_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	n := testMQTT(client)

	require.NoError(t, n.Unsubscribe(ctx, 2))
	assert.Empty(t, client.unsubscribed, "no-op when not subscribed")

	require.NoError(t, n.Subscribe(ctx, 2))
	require.NoError(t, n.Unsubscribe(ctx, 2))
	assert.Equal(t, []string{"fieldnet/exports/2"}, client.unsubscribed)
}

func TestMQTTNetwork_NotConnected(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.setConnected(false)
	n := testMQTT(client)

	assert.True(t, IsTransportError(n.Subscribe(ctx, 2)))
	err := n.Broadcast(ctx, 1, []byte("x"))
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, errNotConnected)
}

func TestMQTTNetwork_PublishError(t *testing.T) {
	client := newFakeClient()
	client.publishErr = errors.New("broker rejected")
	n := testMQTT(client)

	err := n.Broadcast(context.Background(), 1, []byte("x"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.NotErrorIs(t, err, ErrClosed)
}

func TestMQTTNetwork_PublishTimeout(t *testing.T) {
	client := newFakeClient()
	client.hang = true
	n := testMQTT(client)

	err := n.Broadcast(context.Background(), 1, []byte("x"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestMQTTNetwork_PublishCancelled(t *testing.T) {
	client := newFakeClient()
	client.hang = true
	n := testMQTT(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Broadcast(ctx, 1, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTNetwork_Close(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	n := testMQTT(client)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.True(t, client.disconnected)

	assert.ErrorIs(t, n.Subscribe(ctx, 2), ErrClosed)
	assert.ErrorIs(t, n.Unsubscribe(ctx, 2), ErrClosed)
	assert.ErrorIs(t, n.Broadcast(ctx, 1, nil), ErrClosed)
	_, err := n.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMQTTNetwork_OnConnectResubscribes(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	n := testMQTT(client)

	require.NoError(t, n.Subscribe(ctx, 2))
	require.NoError(t, n.Subscribe(ctx, 3))

	// Simulate a clean-session reconnect: the broker forgot every route.
	client.mu.Lock()
	client.handlers = make(map[string]mqtt.MessageHandler)
	client.mu.Unlock()

	n.onConnect(client)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Contains(t, client.handlers, "fieldnet/exports/2")
	assert.Contains(t, client.handlers, "fieldnet/exports/3")
}

func TestMQTTNetwork_DropsWhenInboxFull(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	n := testMQTT(client)
	require.NoError(t, n.Subscribe(ctx, 1))

	for i := 0; i < 6; i++ {
		require.NoError(t, n.Broadcast(ctx, 1, []byte{byte(i)}))
	}
	assert.Equal(t, 4, n.Inbox().Len())
	assert.Equal(t, uint64(2), n.Inbox().Dropped())
}

func TestMQTTConfig_Defaults(t *testing.T) {
	cfg := MQTTConfig{Broker: "tcp://x:1883", Device: 7}
	cfg.setDefaults()

	assert.Equal(t, DefaultTopicPrefix, cfg.Topics.Prefix)
	assert.Equal(t, DefaultKeepAlive, cfg.KeepAlive)
	assert.Regexp(t, `^fieldnet-7-[0-9a-f]{8}$`, cfg.ClientID)
	assert.NoError(t, cfg.validate())
}

func TestMQTTConfig_Validate(t *testing.T) {
	cfg := MQTTConfig{}
	cfg.setDefaults()
	assert.ErrorContains(t, cfg.validate(), "broker address")

	cfg.Broker = "tcp://x:1883"
	cfg.QoS = 3
	assert.ErrorContains(t, cfg.validate(), "qos")
}

func TestDialMQTT_InvalidConfig(t *testing.T) {
	_, err := DialMQTT(context.Background(), MQTTConfig{})
	assert.Error(t, err)
}
