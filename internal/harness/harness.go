package harness

import (
	"context"
	"fmt"

	"github.com/roach88/fieldnet/internal/sim"
	"github.com/roach88/fieldnet/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Every scenario gets a fresh in-process broker, a deterministic clock and
// a fixed run ID, so repeated runs produce identical traces. An error is
// returned only when the simulation itself cannot run; failed assertions
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	topo, err := scenario.Topology()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	runIDs := testutil.NewFixedRunIDGenerator(scenario.RunID)
	res, err := sim.Run(ctx, sim.Config{
		Topology:    topo,
		Sources:     scenario.Sources,
		Rounds:      scenario.rounds(),
		Policy:      scenario.Policy,
		IncludeSelf: scenario.IncludeSelf,
		RunID:       runIDs.Generate(),
		Clock:       testutil.NewDeterministicClock(),
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.RunID = res.RunID
	result.Values = res.Values
	result.Trace = res.Trace

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(a, result); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

func (s *Scenario) rounds() int {
	if s.Rounds == 0 {
		return sim.DefaultRounds
	}
	return s.Rounds
}
