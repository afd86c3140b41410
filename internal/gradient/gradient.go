// Package gradient implements the hop-count distance gradient: every device
// computes its distance to the nearest source from its neighbors' last
// exported distances.
package gradient

import (
	"math"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/platform"
	"github.com/roach88/fieldnet/internal/sensor"
)

// Paths the gradient writes its value under. Neighbors read NbrPath.
var (
	RepPath = export.NewPath(export.Rep(0))
	NbrPath = RepPath.Push(export.FoldHood(0)).Push(export.Nbr(0))
)

// DefaultRange is the distance to a neighbor without an nbr_range reading.
const DefaultRange = 1.0

// Evaluate computes one gradient round.
//
// A source exports 0. Any other device exports the minimum over its
// neighbors (excluding itself) of the neighbor's distance plus the range
// to that neighbor, or +Inf when no neighbor has reported yet. The local
// sensor "source" is required.
func Evaluate(c platform.Context) (export.Export, any, error) {
	isSource, err := c.Local.Bool(sensor.Source)
	if err != nil {
		return export.Export{}, nil, err
	}

	d := math.Inf(1)
	if isSource {
		d = 0
	} else {
		for id, state := range c.States {
			if id == c.Self {
				continue
			}
			nd, ok := Distance(state)
			if !ok {
				continue
			}
			r, err := c.Neighbor.Number(sensor.NbrRange, id)
			if err != nil {
				r = DefaultRange
			}
			d = math.Min(d, nd+r)
		}
	}

	exp := export.Of(export.Float(d), RepPath, NbrPath)
	return exp, d, nil
}

// Distance reads the distance a neighbor exported.
func Distance(e export.Export) (float64, bool) {
	v, ok := e.Get(NbrPath)
	if !ok {
		v, ok = e.Root()
	}
	if !ok {
		return 0, false
	}
	return export.AsFloat(v)
}
