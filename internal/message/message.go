package message

import (
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/fieldnet/internal/export"
)

// DeviceID identifies a device in the deployment.
type DeviceID int32

func (id DeviceID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseDeviceID parses the decimal form produced by DeviceID.String.
func ParseDeviceID(s string) (DeviceID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid device id %q: %w", s, err)
	}
	return DeviceID(n), nil
}

// Message is one device's exported state at a point in time.
type Message struct {
	source    DeviceID
	export    export.Export
	timestamp time.Time
}

// New creates a message. The export is copied and the timestamp is
// normalized to UTC without a monotonic reading, so that a message compares
// equal to its decoded wire form.
func New(source DeviceID, exp export.Export, timestamp time.Time) Message {
	return Message{
		source:    source,
		export:    exp.Clone(),
		timestamp: timestamp.Round(0).UTC(),
	}
}

// Source returns the device that produced the message.
func (m Message) Source() DeviceID {
	return m.source
}

// Export returns a copy of the carried export.
func (m Message) Export() export.Export {
	return m.export.Clone()
}

// Timestamp returns the production time of the message.
func (m Message) Timestamp() time.Time {
	return m.timestamp
}

// Equal reports whether m and other agree on source, export and timestamp.
func (m Message) Equal(other Message) bool {
	return m.source == other.source &&
		m.timestamp.Equal(other.timestamp) &&
		m.export.Equal(other.export)
}

func (m Message) String() string {
	return fmt.Sprintf("[msg from=%d at=%s export=%s]", m.source, m.timestamp.Format(time.RFC3339Nano), m.export)
}
