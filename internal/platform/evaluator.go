package platform

import (
	"errors"
	"fmt"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/sensor"
)

// Context is the input to one round.
//
// The platform rebuilds it with WithStates at the start of every round.
// Evaluators must treat it as read-only.
type Context struct {
	Self     message.DeviceID
	Local    sensor.Local
	Neighbor sensor.Neighbor
	States   mailbox.States
}

// WithStates returns a copy of c carrying states.
func (c Context) WithStates(states mailbox.States) Context {
	c.States = states
	return c
}

// Evaluator computes one round. It returns the export to publish and an
// opaque result passed to round hooks. It must not touch the mailbox or
// the network.
type Evaluator func(Context) (export.Export, any, error)

// EvaluatorError reports a failed evaluation. It is fatal: evaluating the
// same snapshot again would fail the same way.
type EvaluatorError struct {
	Device message.DeviceID
	Round  uint64
	Err    error
}

func (e *EvaluatorError) Error() string {
	return fmt.Sprintf("evaluate device %d round %d: %v", e.Device, e.Round, e.Err)
}

func (e *EvaluatorError) Unwrap() error {
	return e.Err
}

// IsEvaluatorError returns true if err is or wraps an EvaluatorError.
func IsEvaluatorError(err error) bool {
	var ee *EvaluatorError
	return errors.As(err, &ee)
}
