package mailbox

import (
	"fmt"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/message"
)

// Mailbox buffers messages per neighbor.
type Mailbox interface {
	// Enqueue stores msg under its source. It never fails.
	Enqueue(msg message.Message)

	// Messages returns one message per neighbor with buffered data,
	// consuming entries as the policy dictates. Neighbors without
	// buffered data are omitted.
	Messages() Messages

	// Remove discards everything buffered for neighbor.
	Remove(neighbor message.DeviceID)

	// Len returns the number of buffered messages across all neighbors.
	Len() int

	// Policy returns the resolution policy.
	Policy() Policy
}

// Messages is the per-neighbor resolution of a mailbox.
type Messages map[message.DeviceID]message.Message

// States is a point-in-time mapping from neighbor to export.
type States map[message.DeviceID]export.Export

// AsStates projects the messages into a states snapshot. The exports are
// copies; mutating the snapshot does not affect the mailbox.
func (m Messages) AsStates() States {
	states := make(States, len(m))
	for id, msg := range m {
		states[id] = msg.Export()
	}
	return states
}

// New creates an empty mailbox with the given policy.
func New(p Policy) (Mailbox, error) {
	switch p {
	case MemoryLess:
		return newMemoryLess(), nil
	case MostRecent:
		return newTimeOrdered(MostRecent), nil
	case LeastRecent:
		return newTimeOrdered(LeastRecent), nil
	default:
		return nil, fmt.Errorf("unsupported mailbox policy %s", p)
	}
}

// MustNew is like New but panics on an invalid policy.
func MustNew(p Policy) Mailbox {
	mb, err := New(p)
	if err != nil {
		panic(err)
	}
	return mb
}
