// Package topology builds static neighbor sets.
package topology

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/sensor"
)

// Topology maps each device to its neighbors.
type Topology map[message.DeviceID][]message.DeviceID

// Line returns devices 1..n connected in a line: 1-2-3-...-n.
func Line(n int) (Topology, error) {
	if n < 1 {
		return nil, fmt.Errorf("line topology needs at least one device, got %d", n)
	}
	t := make(Topology, n)
	for i := 1; i <= n; i++ {
		id := message.DeviceID(i)
		var nbrs []message.DeviceID
		if i > 1 {
			nbrs = append(nbrs, id-1)
		}
		if i < n {
			nbrs = append(nbrs, id+1)
		}
		t[id] = nbrs
	}
	return t, nil
}

// FromEdges builds an undirected topology. Every device named in an edge
// is present; self loops are kept so a device may hear itself.
func FromEdges(edges [][2]message.DeviceID) Topology {
	t := make(Topology)
	link := func(a, b message.DeviceID) {
		if !slices.Contains(t[a], b) {
			t[a] = append(t[a], b)
		}
	}
	for _, e := range edges {
		link(e[0], e[1])
		link(e[1], e[0])
	}
	for id := range t {
		slices.Sort(t[id])
	}
	return t
}

// Devices returns every device, sorted.
func (t Topology) Devices() []message.DeviceID {
	return slices.Sorted(maps.Keys(t))
}

// Neighbors returns a copy of the neighbors of id.
func (t Topology) Neighbors(id message.DeviceID) []message.DeviceID {
	return slices.Clone(t[id])
}

// Ranges returns the nbr_range readings for self: one hop to every
// neighbor and zero to itself.
func (t Topology) Ranges(self message.DeviceID) sensor.Neighbor {
	nbr := sensor.Neighbor{}
	for _, id := range t[self] {
		r := 1.0
		if id == self {
			r = 0
		}
		nbr.Set(sensor.NbrRange, id, sensor.Number(r))
	}
	return nbr
}
