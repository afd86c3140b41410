package harness

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "line-single-source.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "line-single-source", s.Name)
	assert.Equal(t, 5, s.Devices)
	assert.Equal(t, []message.DeviceID{3}, s.Sources)
	assert.Equal(t, 10, s.Rounds)
	assert.Equal(t, mailbox.MemoryLess, s.Policy)
	assert.Equal(t, "scenario-line", s.RunID)
	require.Len(t, s.Assertions, 5)

	final := s.Assertions[0]
	assert.Equal(t, AssertFinalValues, final.Type)
	assert.Equal(t, Distance(2), final.Values[1])
	assert.Equal(t, Distance(0), final.Values[3])

	trace := s.Assertions[1]
	require.NotNil(t, trace.Device)
	require.NotNil(t, trace.Round)
	require.NotNil(t, trace.Value)
	assert.Equal(t, message.DeviceID(1), *trace.Device)
	assert.Equal(t, 0, *trace.Round)
	assert.True(t, math.IsInf(float64(*trace.Value), 1))

	assert.Nil(t, s.Assertions[3].Device)
}

func TestLoadScenario_Edges(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "star.yaml"))
	require.NoError(t, err)

	topo, err := s.Topology()
	require.NoError(t, err)
	assert.Equal(t, []message.DeviceID{1, 2, 3, 4}, topo.Devices())
	assert.ElementsMatch(t, []message.DeviceID{2, 3, 4}, topo.Neighbors(1))
	assert.Equal(t, []message.DeviceID{1}, topo.Neighbors(3))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestDistance_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"value: 2", 2},
		{"value: 1.5", 1.5},
		{"value: .inf", math.Inf(1)},
		{"value: +.Inf", math.Inf(1)},
		{"value: +Inf", math.Inf(1)},
		{"value: 0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseScenario([]byte(`
name: d
description: d
devices: 1
assertions:
  - type: trace_value
    device: 1
    round: 0
    ` + tt.in + "\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, float64(*s.Assertions[0].Value))
		})
	}
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: x\ndevices: 2\nassertion: []\n",
			want: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: "description: x\ndevices: 2\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\ndevices: 2\n",
			want: "description is required",
		},
		{
			name: "no topology",
			yaml: "name: x\ndescription: x\n",
			want: "exactly one of devices and edges",
		},
		{
			name: "both topologies",
			yaml: "name: x\ndescription: x\ndevices: 2\nedges: [[1, 2]]\n",
			want: "exactly one of devices and edges",
		},
		{
			name: "short edge",
			yaml: "name: x\ndescription: x\nedges: [[1]]\n",
			want: "edges[0]",
		},
		{
			name: "source outside topology",
			yaml: "name: x\ndescription: x\ndevices: 2\nsources: [3]\n",
			want: "source 3 is not in the topology",
		},
		{
			name: "bad policy",
			yaml: "name: x\ndescription: x\ndevices: 2\npolicy: newest\n",
			want: "unknown mailbox policy",
		},
		{
			name: "negative rounds",
			yaml: "name: x\ndescription: x\ndevices: 2\nrounds: -1\n",
			want: "rounds must not be negative",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: x\ndevices: 2\nassertions: [{type: converges}]\n",
			want: `unknown assertion type "converges"`,
		},
		{
			name: "final values empty",
			yaml: "name: x\ndescription: x\ndevices: 2\nassertions: [{type: final_values}]\n",
			want: "values is required",
		},
		{
			name: "trace value incomplete",
			yaml: "name: x\ndescription: x\ndevices: 2\nassertions: [{type: trace_value, device: 1}]\n",
			want: "device, round and value are required",
		},
		{
			name: "round out of range",
			yaml: "name: x\ndescription: x\ndevices: 2\nrounds: 5\nassertions: [{type: stable_from, round: 5}]\n",
			want: "round 5 outside 0..4",
		},
		{
			name: "assertion device outside topology",
			yaml: "name: x\ndescription: x\ndevices: 2\nassertions: [{type: all_finite, device: 9}]\n",
			want: "device 9 is not in the topology",
		},
		{
			name: "bad distance",
			yaml: "name: x\ndescription: x\ndevices: 2\nassertions: [{type: final_values, values: {1: far}}]\n",
			want: `invalid distance "far"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenario_DefaultRounds(t *testing.T) {
	s, err := ParseScenario([]byte("name: x\ndescription: x\ndevices: 2\nassertions: [{type: stable_from, round: 19}]\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, s.rounds())
}
