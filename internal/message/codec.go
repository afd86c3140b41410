package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/roach88/fieldnet/internal/export"
)

// CodecError reports a payload that could not be decoded into a Message.
type CodecError struct {
	Size int   // Payload length in bytes
	Err  error // Underlying decode failure
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("decode message (%d bytes): %v", e.Size, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// IsCodecError returns true if err is or wraps a CodecError.
func IsCodecError(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}

// ErrTimestampRange is returned by Encode for timestamps that do not fit
// in int64 Unix nanoseconds (before 1677 or after 2262).
var ErrTimestampRange = errors.New("timestamp outside wire range")

var (
	minWireTime = time.Unix(0, math.MinInt64)
	maxWireTime = time.Unix(0, math.MaxInt64)
)

// wireMessage is the decoding shape of the wire record. Pointers detect
// missing fields.
type wireMessage struct {
	Source    *int32          `json:"source"`
	Export    json.RawMessage `json:"export"`
	Timestamp *int64          `json:"timestamp"`
}

// Encode serializes m to its canonical wire form.
func Encode(m Message) ([]byte, error) {
	if m.timestamp.Before(minWireTime) || m.timestamp.After(maxWireTime) {
		return nil, fmt.Errorf("encode message from %d: %w: %s", m.source, ErrTimestampRange, m.timestamp)
	}
	exportJSON, err := m.export.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode message from %d: %w", m.source, err)
	}

	// Keys are written in sorted order: export, source, timestamp.
	var buf bytes.Buffer
	buf.WriteString(`{"export":`)
	buf.Write(exportJSON)
	buf.WriteString(`,"source":`)
	buf.WriteString(strconv.FormatInt(int64(m.source), 10))
	buf.WriteString(`,"timestamp":`)
	buf.WriteString(strconv.FormatInt(m.timestamp.UnixNano(), 10))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a wire payload. Any failure is returned as *CodecError.
func Decode(payload []byte) (Message, error) {
	fail := func(err error) (Message, error) {
		return Message{}, &CodecError{Size: len(payload), Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var w wireMessage
	if err := dec.Decode(&w); err != nil {
		return fail(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fail(errors.New("trailing data after message"))
	}

	switch {
	case w.Source == nil:
		return fail(errors.New("missing source"))
	case w.Timestamp == nil:
		return fail(errors.New("missing timestamp"))
	case len(w.Export) == 0:
		return fail(errors.New("missing export"))
	}

	var exp export.Export
	if err := exp.UnmarshalJSON(w.Export); err != nil {
		return fail(fmt.Errorf("export: %w", err))
	}

	return Message{
		source:    DeviceID(*w.Source),
		export:    exp,
		timestamp: time.Unix(0, *w.Timestamp).UTC(),
	}, nil
}
