package mailbox

import "github.com/roach88/fieldnet/internal/message"

// memoryLess keeps the last message enqueued per neighbor.
type memoryLess struct {
	latest map[message.DeviceID]message.Message
}

func newMemoryLess() *memoryLess {
	return &memoryLess{latest: make(map[message.DeviceID]message.Message)}
}

func (m *memoryLess) Enqueue(msg message.Message) {
	m.latest[msg.Source()] = msg
}

// Messages is non-destructive: repeated calls return the same messages
// until a neighbor sends again.
func (m *memoryLess) Messages() Messages {
	out := make(Messages, len(m.latest))
	for id, msg := range m.latest {
		out[id] = msg
	}
	return out
}

func (m *memoryLess) Remove(neighbor message.DeviceID) {
	delete(m.latest, neighbor)
}

func (m *memoryLess) Len() int {
	return len(m.latest)
}

func (m *memoryLess) Policy() Policy {
	return MemoryLess
}
