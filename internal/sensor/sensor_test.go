package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldnet/internal/message"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"bool", true, Bool(true)},
		{"int", 3, Number(3)},
		{"int64", int64(-2), Number(-2)},
		{"uint64", uint64(9), Number(9)},
		{"float", 1.5, Number(1.5)},
		{"float32", float32(0.5), Number(0.5)},
		{"string", "kitchen", Text("kitchen")},
		{"already typed", Number(7), Number(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Rejects(t *testing.T) {
	_, err := Resolve(nil)
	assert.Error(t, err)

	_, err = Resolve([]int{1})
	assert.ErrorContains(t, err, "unsupported")

	_, err = Resolve(map[string]any{})
	assert.Error(t, err)
}

func TestNewID_NFC(t *testing.T) {
	assert.Equal(t, ID("caf\u00e9"), NewID("cafe\u0301"))
}

func TestLocal_Accessors(t *testing.T) {
	local, err := ResolveLocal(map[string]any{
		"source":      true,
		"temperature": 21.5,
		"label":       "north",
	})
	require.NoError(t, err)

	src, err := local.Bool(Source)
	require.NoError(t, err)
	assert.True(t, src)

	temp, err := local.Number("temperature")
	require.NoError(t, err)
	assert.Equal(t, 21.5, temp)

	_, err = local.Bool("missing")
	assert.ErrorIs(t, err, ErrMissing)

	_, err = local.Bool("label")
	assert.ErrorIs(t, err, ErrType)

	_, err = local.Number(Source)
	assert.ErrorIs(t, err, ErrType)

	v, ok := local.Get("label")
	require.True(t, ok)
	assert.Equal(t, `"north"`, v.String())
}

func TestResolveLocal_Error(t *testing.T) {
	_, err := ResolveLocal(map[string]any{"bad": struct{}{}})
	assert.ErrorContains(t, err, `local sensor "bad"`)
}

func TestLocal_Clone(t *testing.T) {
	local := Local{Source: Bool(true)}
	clone := local.Clone()
	clone[Source] = Bool(false)

	src, _ := local.Bool(Source)
	assert.True(t, src)
}

func TestNeighbor_Accessors(t *testing.T) {
	nbr, err := ResolveNeighbor(map[string]map[message.DeviceID]any{
		"nbr_range": {2: 1, 4: 2.5},
	})
	require.NoError(t, err)

	r, err := nbr.Number(NbrRange, 4)
	require.NoError(t, err)
	assert.Equal(t, 2.5, r)

	_, err = nbr.Number(NbrRange, 9)
	assert.ErrorIs(t, err, ErrMissing)

	_, err = nbr.Number("unknown", 2)
	assert.ErrorIs(t, err, ErrMissing)

	nbr.Set("name", 2, Text("b"))
	_, err = nbr.Number("name", 2)
	assert.ErrorIs(t, err, ErrType)
}

func TestNeighbor_RemoveAndClone(t *testing.T) {
	nbr := Neighbor{}
	nbr.Set(NbrRange, 2, Number(1))
	nbr.Set(NbrRange, 3, Number(1))

	clone := nbr.Clone()
	nbr.Remove(2)

	_, err := nbr.Number(NbrRange, 2)
	assert.ErrorIs(t, err, ErrMissing)

	r, err := clone.Number(NbrRange, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
}

func TestResolveNeighbor_Error(t *testing.T) {
	_, err := ResolveNeighbor(map[string]map[message.DeviceID]any{
		"nbr_range": {2: nil},
	})
	assert.ErrorContains(t, err, "device 2")
}
