package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/fieldnet/internal/message"
)

// Network hides the concrete pub/sub transport from the platform loop.
//
// Thread-safety: Subscribe, Unsubscribe, Broadcast and Receive are called
// by the platform loop only. Close may be called from any goroutine.
type Network interface {
	// Subscribe registers interest in a neighbor's topic. Subscribing
	// twice is a no-op.
	Subscribe(ctx context.Context, neighbor message.DeviceID) error

	// Unsubscribe removes interest in a neighbor's topic. Unsubscribing
	// from a topic that was never subscribed is a no-op.
	Unsubscribe(ctx context.Context, neighbor message.DeviceID) error

	// Broadcast publishes payload on the topic of self. Delivery is
	// at most once.
	Broadcast(ctx context.Context, self message.DeviceID, payload []byte) error

	// Receive returns the next inbound payload, or NoUpdate when nothing
	// arrived within the configured wait.
	Receive(ctx context.Context) (Update, error)

	// Close releases the transport. Every later call returns ErrClosed.
	Close() error
}

// Update is the result of a receive attempt.
type Update struct {
	Topic   string
	Payload []byte
}

// NoUpdate reports that no payload was available.
var NoUpdate = Update{}

// HasPayload reports whether u carries a payload.
func (u Update) HasPayload() bool {
	return u.Payload != nil
}

// ErrClosed is returned by every operation on a closed network. It is
// permanent: the platform stops when it sees it.
var ErrClosed = errors.New("network closed")

// TransportError reports a transient transport failure.
type TransportError struct {
	Op    string // subscribe, unsubscribe, publish, receive, connect
	Topic string // empty when the operation has no topic
	Err   error
}

func (e *TransportError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Topic, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
