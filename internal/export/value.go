package export

import (
	"fmt"
	"math"
)

// Value is a sealed interface over the value kinds an export may hold.
// Only Bool, Float, Int and String implement it.
type Value interface {
	exportValue()
	kind() string
}

// Bool is a boolean export value.
type Bool bool

func (Bool) exportValue() {}
func (Bool) kind() string { return kindBool }

// Float is a float64 export value. Infinities and NaN are allowed.
type Float float64

func (Float) exportValue() {}
func (Float) kind() string { return kindFloat }

// Int is an int64 export value.
type Int int64

func (Int) exportValue() {}
func (Int) kind() string { return kindInt }

// String is a string export value.
type String string

func (String) exportValue() {}
func (String) kind() string { return kindString }

const (
	kindBool   = "bool"
	kindFloat  = "float"
	kindInt    = "int"
	kindString = "string"
)

// AsFloat converts numeric values to float64.
// Returns false for non-numeric values.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Float:
		return float64(val), true
	case Int:
		return float64(val), true
	default:
		return 0, false
	}
}

// valuesEqual compares two values, treating NaN as equal to NaN so that
// exports holding NaN still compare equal after a round trip.
func valuesEqual(a, b Value) bool {
	fa, aok := a.(Float)
	fb, bok := b.(Float)
	if aok && bok {
		if math.IsNaN(float64(fa)) && math.IsNaN(float64(fb)) {
			return true
		}
		return fa == fb
	}
	return a == b
}

// FormatValue renders v for logs and CLI output.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<none>"
	case Float:
		return formatFloat(float64(val))
	case String:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
