package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fieldnet/internal/message"
)

// Snapshot captures a scenario execution for golden comparison. Distances
// are rendered as text so that +Inf survives JSON.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	RunID        string           `json:"run_id"`
	Policy       string           `json:"policy"`
	Rounds       int              `json:"rounds"`
	Devices      []DeviceSnapshot `json:"devices"`
}

// DeviceSnapshot is one device's part of a Snapshot.
type DeviceSnapshot struct {
	Device message.DeviceID `json:"device"`
	Final  string           `json:"final"`
	Trace  []string         `json:"trace"`
}

// NewSnapshot builds the snapshot of a scenario's result.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: scenario.Name,
		RunID:        result.RunID,
		Policy:       scenario.Policy.String(),
		Rounds:       scenario.rounds(),
		Devices:      make([]DeviceSnapshot, 0, len(result.Values)),
	}
	for _, id := range result.Devices() {
		trace := make([]string, len(result.Trace[id]))
		for i, v := range result.Trace[id] {
			trace[i] = formatDistance(v)
		}
		s.Devices = append(s.Devices, DeviceSnapshot{
			Device: id,
			Final:  formatDistance(result.Values[id]),
			Trace:  trace,
		})
	}
	return s
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
