package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalJSON produces canonical JSON for the export:
//
//	{"/":{"float":"0"},"/rep[0]":{"float":"0"}}
//
// Every value is a single-key object naming its kind, so decoding never has
// to guess between int and float.
//
// The canonical bytes are what MarshalJSON returns and what an encoder with
// SetEscapeHTML(false) writes. json.Marshal re-escapes <, > and & in
// strings; the result decodes to the same export but is not canonical.
func (e Export) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range e.sortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := MarshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalValue(e.entries[k])
		if err != nil {
			return nil, fmt.Errorf("value at %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the canonical form written by MarshalJSON.
// Unknown paths, unknown kinds and wrongly typed payloads are rejected.
func (e *Export) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("export must be an object")
	}

	out := New()
	for k, rv := range raw {
		p, err := ParsePath(k)
		if err != nil {
			return err
		}
		v, err := unmarshalValue(rv)
		if err != nil {
			return fmt.Errorf("value at %q: %w", k, err)
		}
		out.Put(p, v)
	}

	*e = out
	return nil
}

func marshalValue(v Value) ([]byte, error) {
	var payload []byte
	switch val := v.(type) {
	case Bool:
		if val {
			payload = []byte("true")
		} else {
			payload = []byte("false")
		}
	case Float:
		payload = strconv.AppendQuote(nil, formatFloat(float64(val)))
	case Int:
		payload = strconv.AppendInt(nil, int64(val), 10)
	case String:
		s, err := MarshalCanonicalString(string(val))
		if err != nil {
			return nil, err
		}
		payload = s
	default:
		return nil, fmt.Errorf("unsupported export value type %T", v)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"`)
	buf.WriteString(v.kind())
	buf.WriteString(`":`)
	buf.Write(payload)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalValue(data []byte) (Value, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("expected exactly one kind tag, got %d", len(tagged))
	}

	for kind, payload := range tagged {
		switch kind {
		case kindBool:
			var b bool
			if err := json.Unmarshal(payload, &b); err != nil {
				return nil, fmt.Errorf("bool: %w", err)
			}
			return Bool(b), nil

		case kindFloat:
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("float: %w", err)
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("float: %w", err)
			}
			return Float(f), nil

		case kindInt:
			var n int64
			if err := json.Unmarshal(payload, &n); err != nil {
				return nil, fmt.Errorf("int: %w", err)
			}
			return Int(n), nil

		case kindString:
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("string: %w", err)
			}
			return String(s), nil

		default:
			return nil, fmt.Errorf("unknown value kind %q", kind)
		}
	}
	return nil, fmt.Errorf("unreachable")
}

// formatFloat renders the shortest representation that parses back to f.
// Infinities render as "+Inf" and "-Inf", NaN as "NaN".
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// MarshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping.
func MarshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
