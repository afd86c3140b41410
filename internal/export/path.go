package export

import (
	"fmt"
	"strconv"
	"strings"
)

// SlotKind identifies the language construct that introduced a slot.
type SlotKind string

const (
	SlotNbr      SlotKind = "nbr"
	SlotRep      SlotKind = "rep"
	SlotBranch   SlotKind = "branch"
	SlotFoldHood SlotKind = "foldhood"
	SlotExchange SlotKind = "exchange"
)

func (k SlotKind) valid() bool {
	switch k {
	case SlotNbr, SlotRep, SlotBranch, SlotFoldHood, SlotExchange:
		return true
	}
	return false
}

// Slot is one step of an execution path.
type Slot struct {
	Kind  SlotKind
	Index int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s[%d]", s.Kind, s.Index)
}

// Nbr returns a nbr slot with the given index.
func Nbr(i int) Slot { return Slot{Kind: SlotNbr, Index: i} }

// Rep returns a rep slot with the given index.
func Rep(i int) Slot { return Slot{Kind: SlotRep, Index: i} }

// Branch returns a branch slot with the given index.
func Branch(i int) Slot { return Slot{Kind: SlotBranch, Index: i} }

// FoldHood returns a foldhood slot with the given index.
func FoldHood(i int) Slot { return Slot{Kind: SlotFoldHood, Index: i} }

// Exchange returns an exchange slot with the given index.
func Exchange(i int) Slot { return Slot{Kind: SlotExchange, Index: i} }

// Path is an ordered list of slots, outermost first.
// The zero value is the root path.
type Path []Slot

// NewPath builds a path from slots.
func NewPath(slots ...Slot) Path {
	p := make(Path, len(slots))
	copy(p, slots)
	return p
}

// IsRoot reports whether p is the empty path.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Push returns a new path with s appended. p is not modified.
func (p Path) Push(s Slot) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// String renders the path as "/" for the root and "/rep[0]/nbr[0]" otherwise.
// ParsePath is its inverse.
func (p Path) String() string {
	if p.IsRoot() {
		return "/"
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePath parses the textual form produced by Path.String.
func ParsePath(s string) (Path, error) {
	if s == "/" {
		return Path{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("path %q: must start with /", s)
	}

	parts := strings.Split(s[1:], "/")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		slot, err := parseSlot(part)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", s, err)
		}
		p = append(p, slot)
	}
	return p, nil
}

func parseSlot(s string) (Slot, error) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return Slot{}, fmt.Errorf("malformed slot %q", s)
	}

	kind := SlotKind(s[:open])
	if !kind.valid() {
		return Slot{}, fmt.Errorf("unknown slot kind %q", kind)
	}

	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || idx < 0 {
		return Slot{}, fmt.Errorf("malformed slot index in %q", s)
	}
	return Slot{Kind: kind, Index: idx}, nil
}
