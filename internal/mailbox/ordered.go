package mailbox

import (
	"github.com/roach88/fieldnet/internal/message"
)

// timeOrdered keeps every message per neighbor in a queue sorted by
// timestamp. Messages with equal timestamps keep their insertion order.
//
// LeastRecent pops the oldest message per neighbor on each read.
// MostRecent returns the newest one and discards the rest of that
// neighbor's queue, so a second read without new messages surfaces
// nothing for it.
type timeOrdered struct {
	policy Policy
	queues map[message.DeviceID]*message.Queue
	count  int
}

func newTimeOrdered(p Policy) *timeOrdered {
	return &timeOrdered{
		policy: p,
		queues: make(map[message.DeviceID]*message.Queue),
	}
}

func (t *timeOrdered) Enqueue(msg message.Message) {
	q, ok := t.queues[msg.Source()]
	if !ok {
		q = message.NewQueue()
		t.queues[msg.Source()] = q
	}
	q.InsertByTimestamp(msg)
	t.count++
}

func (t *timeOrdered) Messages() Messages {
	out := make(Messages, len(t.queues))
	for id, q := range t.queues {
		var (
			msg message.Message
			ok  bool
		)
		if t.policy == MostRecent {
			msg, ok = q.PopBack()
			t.count -= q.Clear()
		} else {
			msg, ok = q.Pop()
		}
		if ok {
			out[id] = msg
			t.count--
		}

		if q.IsEmpty() {
			delete(t.queues, id)
		}
	}
	return out
}

func (t *timeOrdered) Remove(neighbor message.DeviceID) {
	if q, ok := t.queues[neighbor]; ok {
		t.count -= q.Len()
		delete(t.queues, neighbor)
	}
}

func (t *timeOrdered) Len() int {
	return t.count
}

func (t *timeOrdered) Policy() Policy {
	return t.policy
}
