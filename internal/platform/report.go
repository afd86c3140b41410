package platform

import (
	"context"
	"time"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/message"
)

// Report describes one completed cycle.
type Report struct {
	RunID     string
	Device    message.DeviceID
	Round     uint64
	Export    export.Export
	Result    any
	Neighbors []message.DeviceID // Neighbors present in the snapshot, sorted
	Published bool               // Broadcast succeeded
	Received  bool               // An update was enqueued
	StartedAt time.Time
	Duration  time.Duration
}

// Hook observes completed cycles. A hook error is logged and never stops
// the loop.
type Hook func(ctx context.Context, r Report) error
