package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/platform"
)

// Round is one recorded platform cycle.
type Round struct {
	RunID     string
	Device    message.DeviceID
	Round     uint64
	Export    export.Export
	Result    string // Textual form of the evaluator result
	Neighbors []message.DeviceID
	Published bool
	Received  bool
	StartedAt time.Time
	Duration  time.Duration
}

// FromReport converts a platform report into a Round.
func FromReport(r platform.Report) Round {
	return Round{
		RunID:     r.RunID,
		Device:    r.Device,
		Round:     r.Round,
		Export:    r.Export.Clone(),
		Result:    formatResult(r.Result),
		Neighbors: append([]message.DeviceID{}, r.Neighbors...),
		Published: r.Published,
		Received:  r.Received,
		StartedAt: r.StartedAt.Round(0).UTC(),
		Duration:  r.Duration,
	}
}

// Value returns the exported root value in display form.
func (r Round) Value() string {
	v, _ := r.Export.Root()
	return export.FormatValue(v)
}

// formatResult renders an evaluator result as text. Floats use the same
// form as export values so that ±Inf and NaN survive.
func formatResult(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		data, err := marshalJSON(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return data
	}
}

// marshalJSON encodes v without HTML escaping or a trailing newline.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func marshalNeighbors(ids []message.DeviceID) (string, error) {
	if ids == nil {
		ids = []message.DeviceID{}
	}
	data, err := marshalJSON(ids)
	if err != nil {
		return "", fmt.Errorf("marshal neighbors: %w", err)
	}
	return data, nil
}

func unmarshalNeighbors(data string) ([]message.DeviceID, error) {
	ids := []message.DeviceID{}
	if data == "" || data == "[]" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal neighbors: %w", err)
	}
	return ids, nil
}
