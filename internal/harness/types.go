package harness

import (
	"maps"
	"slices"

	"github.com/roach88/fieldnet/internal/message"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// RunID is the run ID the simulation recorded.
	RunID string `json:"run_id"`

	// Values holds the last distance of every device.
	Values map[message.DeviceID]float64 `json:"-"`

	// Trace holds the distance of every device in every round.
	Trace map[message.DeviceID][]float64 `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Values: make(map[message.DeviceID]float64),
		Trace:  make(map[message.DeviceID][]float64),
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Devices returns the simulated devices, sorted.
func (r *Result) Devices() []message.DeviceID {
	return slices.Sorted(maps.Keys(r.Values))
}
