// Package sensor holds the typed sensor values a device evaluates against.
//
// Sensor values are resolved from untyped configuration once, at startup,
// into a closed set of variants. Evaluators read them through the typed
// accessors on Local and Neighbor.
package sensor

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fieldnet/internal/message"
)

// Well-known sensor names.
const (
	Source   ID = "source"    // Local Bool: the device is a gradient source
	NbrRange ID = "nbr_range" // Neighbor Number: distance to each neighbor
)

var (
	// ErrMissing is returned when a sensor is not set.
	ErrMissing = errors.New("sensor not set")

	// ErrType is returned when a sensor holds a different variant than
	// the one requested.
	ErrType = errors.New("sensor has wrong type")
)

// ID names a sensor. IDs are NFC-normalized so that visually identical
// names from different config sources compare equal.
type ID string

// NewID normalizes name into an ID.
func NewID(name string) ID {
	return ID(norm.NFC.String(name))
}

// Value is a sensor reading. The set of variants is closed.
type Value interface {
	sensorValue()
	String() string
}

// Bool is a boolean reading.
type Bool bool

// Number is a numeric reading.
type Number float64

// Text is a textual reading.
type Text string

func (Bool) sensorValue()   {}
func (Number) sensorValue() {}
func (Text) sensorValue()   {}

func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (t Text) String() string   { return strconv.Quote(string(t)) }

// Resolve converts a decoded configuration value into a Value.
func Resolve(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return Text(norm.NFC.String(x)), nil
	case int:
		return Number(x), nil
	case int32:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case uint64:
		return Number(x), nil
	case float32:
		return Number(x), nil
	case float64:
		return Number(x), nil
	case nil:
		return nil, errors.New("sensor value is null")
	default:
		return nil, fmt.Errorf("unsupported sensor value type %T", v)
	}
}

// Local holds a device's own sensor readings.
type Local map[ID]Value

// ResolveLocal builds a Local from decoded configuration.
func ResolveLocal(raw map[string]any) (Local, error) {
	out := make(Local, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		v, err := Resolve(raw[name])
		if err != nil {
			return nil, fmt.Errorf("local sensor %q: %w", name, err)
		}
		out[NewID(name)] = v
	}
	return out, nil
}

// Get returns the reading for id.
func (l Local) Get(id ID) (Value, bool) {
	v, ok := l[id]
	return v, ok
}

// Bool returns a Bool reading.
func (l Local) Bool(id ID) (bool, error) {
	v, ok := l[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissing, id)
	}
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %s, want bool", ErrType, id, v)
	}
	return bool(b), nil
}

// Number returns a Number reading.
func (l Local) Number(id ID) (float64, error) {
	v, ok := l[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissing, id)
	}
	n, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s, want number", ErrType, id, v)
	}
	return float64(n), nil
}

// Clone returns a copy of l.
func (l Local) Clone() Local {
	return maps.Clone(l)
}

// Neighbor holds readings indexed by neighbor, such as the distance to each
// neighbor.
type Neighbor map[ID]map[message.DeviceID]Value

// ResolveNeighbor builds a Neighbor from decoded configuration.
func ResolveNeighbor(raw map[string]map[message.DeviceID]any) (Neighbor, error) {
	out := make(Neighbor, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		byDevice := make(map[message.DeviceID]Value, len(raw[name]))
		for id, rv := range raw[name] {
			v, err := Resolve(rv)
			if err != nil {
				return nil, fmt.Errorf("neighbor sensor %q for device %d: %w", name, id, err)
			}
			byDevice[id] = v
		}
		out[NewID(name)] = byDevice
	}
	return out, nil
}

// Set stores the reading of sensor id for neighbor nbr.
func (n Neighbor) Set(id ID, nbr message.DeviceID, v Value) {
	byDevice, ok := n[id]
	if !ok {
		byDevice = make(map[message.DeviceID]Value)
		n[id] = byDevice
	}
	byDevice[nbr] = v
}

// Number returns the Number reading of sensor id for neighbor nbr.
func (n Neighbor) Number(id ID, nbr message.DeviceID) (float64, error) {
	v, ok := n[id][nbr]
	if !ok {
		return 0, fmt.Errorf("%w: %s[%d]", ErrMissing, id, nbr)
	}
	num, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s[%d] is %s, want number", ErrType, id, nbr, v)
	}
	return float64(num), nil
}

// Remove drops every reading for neighbor nbr.
func (n Neighbor) Remove(nbr message.DeviceID) {
	for _, byDevice := range n {
		delete(byDevice, nbr)
	}
}

// Clone returns a deep copy of n.
func (n Neighbor) Clone() Neighbor {
	out := make(Neighbor, len(n))
	for id, byDevice := range n {
		out[id] = maps.Clone(byDevice)
	}
	return out
}
