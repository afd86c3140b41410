package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/message"
)

// AssertionError is returned when an assertion fails.
// It includes the offending device's trace to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Device   message.DeviceID // Device the assertion failed on
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Trace    []float64        // The device's per-round values
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (device %d)\n", e.Type, e.Device)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Trace: %s", formatTrace(e.Trace))

	return buf.String()
}

// evaluateAssertion dispatches to the appropriate assertion function.
func evaluateAssertion(a Assertion, r *Result) error {
	switch a.Type {
	case AssertFinalValues:
		return assertFinalValues(a, r)
	case AssertTraceValue:
		return assertTraceValue(a, r)
	case AssertStableFrom:
		return assertStableFrom(a, r)
	case AssertAllFinite:
		return assertAllFinite(a, r)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertFinalValues checks the last value of every listed device.
// Devices are checked in order so the first mismatch reported is stable.
func assertFinalValues(a Assertion, r *Result) error {
	for _, id := range r.Devices() {
		want, ok := a.Values[id]
		if !ok {
			continue
		}
		if got := r.Values[id]; !sameDistance(got, float64(want)) {
			return &AssertionError{
				Type:     a.Type,
				Device:   id,
				Expected: formatDistance(float64(want)),
				Actual:   formatDistance(got),
				Trace:    r.Trace[id],
			}
		}
	}
	return nil
}

// assertTraceValue checks one device's value in one round.
func assertTraceValue(a Assertion, r *Result) error {
	id, round := *a.Device, *a.Round
	trace := r.Trace[id]
	if round >= len(trace) {
		return &AssertionError{
			Type:     a.Type,
			Device:   id,
			Expected: fmt.Sprintf("a value in round %d", round),
			Actual:   fmt.Sprintf("%d round(s) recorded", len(trace)),
			Trace:    trace,
		}
	}
	if got := trace[round]; !sameDistance(got, float64(*a.Value)) {
		return &AssertionError{
			Type:     a.Type,
			Device:   id,
			Expected: fmt.Sprintf("%s in round %d", formatDistance(float64(*a.Value)), round),
			Actual:   formatDistance(got),
			Trace:    trace,
		}
	}
	return nil
}

// assertStableFrom checks that from the given round on, the selected
// devices never change value.
func assertStableFrom(a Assertion, r *Result) error {
	round := *a.Round
	for _, id := range selectDevices(a, r) {
		trace := r.Trace[id]
		final := r.Values[id]
		for i := round; i < len(trace); i++ {
			if !sameDistance(trace[i], final) {
				return &AssertionError{
					Type:     a.Type,
					Device:   id,
					Expected: fmt.Sprintf("%s from round %d", formatDistance(final), round),
					Actual:   fmt.Sprintf("%s in round %d", formatDistance(trace[i]), i),
					Trace:    trace,
				}
			}
		}
	}
	return nil
}

// assertAllFinite checks that the selected devices reached a source.
func assertAllFinite(a Assertion, r *Result) error {
	for _, id := range selectDevices(a, r) {
		if v := r.Values[id]; math.IsInf(v, 0) || math.IsNaN(v) {
			return &AssertionError{
				Type:     a.Type,
				Device:   id,
				Expected: "a finite distance",
				Actual:   formatDistance(v),
				Trace:    r.Trace[id],
			}
		}
	}
	return nil
}

func selectDevices(a Assertion, r *Result) []message.DeviceID {
	if a.Device != nil {
		return []message.DeviceID{*a.Device}
	}
	return r.Devices()
}

// sameDistance compares exactly; +Inf equals +Inf.
func sameDistance(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func formatDistance(d float64) string {
	return export.FormatValue(export.Float(d))
}

func formatTrace(trace []float64) string {
	parts := make([]string, len(trace))
	for i, v := range trace {
		parts[i] = formatDistance(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
