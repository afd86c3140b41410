package message

import "sort"

// Queue is a FIFO sequence of messages, independent of their source.
//
// The queue is unbounded; the owner decides whether and how to bound it.
// It is not safe for concurrent use: a Queue is always owned by exactly one
// mailbox, which in turn is owned by the platform loop.
type Queue struct {
	msgs []Message
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{msgs: make([]Message, 0, 8)}
}

// Push appends msg at the back of the queue.
func (q *Queue) Push(msg Message) {
	q.msgs = append(q.msgs, msg)
}

// InsertByTimestamp places msg before the first queued message with a
// strictly later timestamp. Messages with equal timestamps keep their
// insertion order, so a queue fed only through InsertByTimestamp stays
// sorted oldest first.
func (q *Queue) InsertByTimestamp(msg Message) {
	ts := msg.Timestamp()
	i := sort.Search(len(q.msgs), func(i int) bool {
		return q.msgs[i].Timestamp().After(ts)
	})

	q.msgs = append(q.msgs, Message{})
	copy(q.msgs[i+1:], q.msgs[i:])
	q.msgs[i] = msg
}

// Pop removes and returns the oldest message.
// Returns (Message{}, false) if the queue is empty.
func (q *Queue) Pop() (Message, bool) {
	if len(q.msgs) == 0 {
		return Message{}, false
	}

	msg := q.msgs[0]

	// Clear the slot so the backing array does not pin the export.
	q.msgs[0] = Message{}

	if len(q.msgs) == 1 {
		q.msgs = q.msgs[:0]
	} else {
		q.msgs = q.msgs[1:]
	}
	return msg, true
}

// PopBack removes and returns the newest message.
// Returns (Message{}, false) if the queue is empty.
func (q *Queue) PopBack() (Message, bool) {
	if len(q.msgs) == 0 {
		return Message{}, false
	}

	last := len(q.msgs) - 1
	msg := q.msgs[last]
	q.msgs[last] = Message{}
	q.msgs = q.msgs[:last]
	return msg, true
}

// Clear discards every queued message and returns how many there were.
func (q *Queue) Clear() int {
	n := len(q.msgs)
	clear(q.msgs)
	q.msgs = q.msgs[:0]
	return n
}

// Peek returns the oldest message without removing it.
func (q *Queue) Peek() (Message, bool) {
	if len(q.msgs) == 0 {
		return Message{}, false
	}
	return q.msgs[0], true
}

// IsEmpty reports whether the queue holds no messages.
func (q *Queue) IsEmpty() bool {
	return len(q.msgs) == 0
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.msgs)
}
