package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/sensor"
)

func TestLine(t *testing.T) {
	top, err := Line(5)
	require.NoError(t, err)

	assert.Equal(t, []message.DeviceID{1, 2, 3, 4, 5}, top.Devices())
	assert.Equal(t, []message.DeviceID{2}, top.Neighbors(1))
	assert.Equal(t, []message.DeviceID{2, 4}, top.Neighbors(3))
	assert.Equal(t, []message.DeviceID{4}, top.Neighbors(5))
}

func TestLine_Single(t *testing.T) {
	top, err := Line(1)
	require.NoError(t, err)
	assert.Empty(t, top.Neighbors(1))
}

func TestLine_Invalid(t *testing.T) {
	_, err := Line(0)
	assert.Error(t, err)
}

func TestNeighbors_ReturnsCopy(t *testing.T) {
	top, _ := Line(3)
	nbrs := top.Neighbors(2)
	nbrs[0] = 99
	assert.Equal(t, []message.DeviceID{1, 3}, top.Neighbors(2))
}

func TestFromEdges(t *testing.T) {
	top := FromEdges([][2]message.DeviceID{{1, 2}, {2, 3}, {2, 1}, {3, 3}})

	assert.Equal(t, []message.DeviceID{1, 2, 3}, top.Devices())
	assert.Equal(t, []message.DeviceID{1, 3}, top.Neighbors(2))
	assert.Equal(t, []message.DeviceID{2, 3}, top.Neighbors(3))
}

func TestRanges(t *testing.T) {
	top := FromEdges([][2]message.DeviceID{{1, 2}, {1, 1}})
	ranges := top.Ranges(1)

	r, err := ranges.Number(sensor.NbrRange, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	r, err = ranges.Number(sensor.NbrRange, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}
