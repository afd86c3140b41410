package export

import (
	"slices"
	"strings"
)

// Export is the value tree one device produced in one round, keyed by path.
//
// The zero value is an empty export ready for use. Exports are built by the
// evaluator and treated as read-only once handed to the platform; use Clone
// before mutating an export that may be shared.
type Export struct {
	entries map[string]Value
}

// New creates an empty export.
func New() Export {
	return Export{entries: make(map[string]Value)}
}

// Of builds an export holding v at the root and at each of the given paths.
func Of(v Value, paths ...Path) Export {
	e := New()
	e.Put(Path{}, v)
	for _, p := range paths {
		e.Put(p, v)
	}
	return e
}

// Put stores v at path p, replacing any previous value.
func (e *Export) Put(p Path, v Value) {
	if e.entries == nil {
		e.entries = make(map[string]Value)
	}
	e.entries[p.String()] = v
}

// Get returns the value stored at p.
func (e Export) Get(p Path) (Value, bool) {
	v, ok := e.entries[p.String()]
	return v, ok
}

// Root returns the value stored at the root path.
func (e Export) Root() (Value, bool) {
	return e.Get(Path{})
}

// Len returns the number of paths holding a value.
func (e Export) Len() int {
	return len(e.entries)
}

// Paths returns every populated path in canonical order.
func (e Export) Paths() []Path {
	keys := e.sortedKeys()
	paths := make([]Path, 0, len(keys))
	for _, k := range keys {
		// Keys are always produced by Path.String, so parsing cannot fail.
		p, _ := ParsePath(k)
		paths = append(paths, p)
	}
	return paths
}

// Clone returns a deep copy of e.
func (e Export) Clone() Export {
	out := Export{entries: make(map[string]Value, len(e.entries))}
	for k, v := range e.entries {
		out.entries[k] = v
	}
	return out
}

// Equal reports whether e and other hold the same values at the same paths.
func (e Export) Equal(other Export) bool {
	if len(e.entries) != len(other.entries) {
		return false
	}
	for k, v := range e.entries {
		ov, ok := other.entries[k]
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

// String renders the export for logs, e.g. "{/: 0, /rep[0]: 0}".
func (e Export) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range e.sortedKeys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(FormatValue(e.entries[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// sortedKeys returns path keys in byte order. Rendered paths are ASCII, so
// byte order and UTF-16 code unit order agree.
func (e Export) sortedKeys() []string {
	keys := make([]string, 0, len(e.entries))
	for k := range e.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
