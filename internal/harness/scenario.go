package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/topology"
)

// Scenario defines a simulated deployment and the outcome expected from it.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Devices builds a line topology 1..Devices. Exactly one of Devices
	// and Edges must be set.
	Devices int `yaml:"devices,omitempty"`

	// Edges builds an undirected topology from device pairs.
	Edges [][]message.DeviceID `yaml:"edges,omitempty"`

	// Sources lists the devices whose "source" sensor is true.
	Sources []message.DeviceID `yaml:"sources"`

	// Rounds per device. Default: sim.DefaultRounds.
	Rounds int `yaml:"rounds,omitempty"`

	// Policy is the mailbox policy of every device. Default: memoryless.
	Policy mailbox.Policy `yaml:"policy,omitempty"`

	// IncludeSelf makes every device subscribe to its own exports.
	IncludeSelf bool `yaml:"include_self,omitempty"`

	// RunID is a fixed run ID for deterministic traces.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the final values and the per-round trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the simulation result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_values": every listed device ends with the given value
	// - "trace_value": Device has Value at Round
	// - "stable_from": from Round on, Device (or every device) keeps its final value
	// - "all_finite": every device (or Device) ends with a finite value
	Type string `yaml:"type"`

	// Device selects one device. Optional for stable_from and all_finite.
	Device *message.DeviceID `yaml:"device,omitempty"`

	// Round is a zero-based round index (trace_value, stable_from).
	Round *int `yaml:"round,omitempty"`

	// Value is the expected distance (trace_value).
	Value *Distance `yaml:"value,omitempty"`

	// Values maps devices to expected final distances (final_values).
	Values map[message.DeviceID]Distance `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalValues = "final_values"
	AssertTraceValue  = "trace_value"
	AssertStableFrom  = "stable_from"
	AssertAllFinite   = "all_finite"
)

// Distance is a gradient value in a scenario file. Besides numbers it
// accepts the YAML infinity ".inf" and Go's "+Inf".
type Distance float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distance) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: distance must be a number or .inf", node.Line)
	}
	switch strings.ToLower(node.Value) {
	case ".inf", "+.inf":
		*d = Distance(math.Inf(1))
		return nil
	}
	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid distance %q", node.Line, node.Value)
	}
	*d = Distance(f)
	return nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Topology builds the scenario's neighbor sets.
func (s *Scenario) Topology() (topology.Topology, error) {
	if s.Devices > 0 {
		return topology.Line(s.Devices)
	}
	pairs := make([][2]message.DeviceID, 0, len(s.Edges))
	for i, e := range s.Edges {
		if len(e) != 2 {
			return nil, fmt.Errorf("edges[%d]: want 2 devices, got %d", i, len(e))
		}
		pairs = append(pairs, [2]message.DeviceID{e[0], e[1]})
	}
	return topology.FromEdges(pairs), nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Devices < 0 {
		return fmt.Errorf("devices must be positive, got %d", s.Devices)
	}
	if (s.Devices > 0) == (len(s.Edges) > 0) {
		return fmt.Errorf("exactly one of devices and edges is required")
	}

	topo, err := s.Topology()
	if err != nil {
		return err
	}
	for _, src := range s.Sources {
		if _, ok := topo[src]; !ok {
			return fmt.Errorf("source %d is not in the topology", src)
		}
	}

	if s.Rounds < 0 {
		return fmt.Errorf("rounds must not be negative, got %d", s.Rounds)
	}

	if _, err := mailbox.New(s.Policy); err != nil {
		return err
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, topo, s.rounds()); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i, a.Type, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion, topo topology.Topology, rounds int) error {
	if a.Device != nil {
		if _, ok := topo[*a.Device]; !ok {
			return fmt.Errorf("device %d is not in the topology", *a.Device)
		}
	}
	if a.Round != nil && (*a.Round < 0 || *a.Round >= rounds) {
		return fmt.Errorf("round %d outside 0..%d", *a.Round, rounds-1)
	}

	switch a.Type {
	case AssertFinalValues:
		if len(a.Values) == 0 {
			return fmt.Errorf("values is required")
		}
		for id := range a.Values {
			if _, ok := topo[id]; !ok {
				return fmt.Errorf("device %d is not in the topology", id)
			}
		}
	case AssertTraceValue:
		if a.Device == nil || a.Round == nil || a.Value == nil {
			return fmt.Errorf("device, round and value are required")
		}
	case AssertStableFrom:
		if a.Round == nil {
			return fmt.Errorf("round is required")
		}
	case AssertAllFinite:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
