package mailbox

import (
	"fmt"
	"strings"
)

// Policy selects how a Mailbox resolves buffered messages.
type Policy int

const (
	MemoryLess Policy = iota
	MostRecent
	LeastRecent
)

var policyNames = [...]string{
	MemoryLess:  "memoryless",
	MostRecent:  "most-recent",
	LeastRecent: "least-recent",
}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("policy(%d)", int(p))
	}
	return policyNames[p]
}

// ParsePolicy returns the policy with the given name. Matching ignores case
// and accepts underscores in place of hyphens.
func ParsePolicy(s string) (Policy, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, n := range policyNames {
		if n == name {
			return Policy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mailbox policy %q (want one of %s)", s, strings.Join(policyNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(policyNames) {
		return nil, fmt.Errorf("invalid mailbox policy %d", int(p))
	}
	return []byte(policyNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
