package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/fieldnet/internal/message"
)

// DefaultTopicPrefix is the namespace devices publish under.
const DefaultTopicPrefix = "fieldnet/exports"

// Topics maps device identifiers to topic names and back.
//
// The mapping is prefix + "/" + decimal id. Distinct ids always produce
// distinct topics and Parse inverts For.
type Topics struct {
	Prefix string
}

// NewTopics validates prefix and returns the mapping.
func NewTopics(prefix string) (Topics, error) {
	t := Topics{Prefix: prefix}
	if err := t.Validate(); err != nil {
		return Topics{}, err
	}
	return t, nil
}

// Validate rejects prefixes that would make topics ambiguous or match
// MQTT wildcards.
func (t Topics) Validate() error {
	switch {
	case t.Prefix == "":
		return errors.New("topic prefix is empty")
	case strings.ContainsAny(t.Prefix, "+#"):
		return fmt.Errorf("topic prefix %q contains a wildcard", t.Prefix)
	case strings.HasSuffix(t.Prefix, "/"):
		return fmt.Errorf("topic prefix %q ends with a separator", t.Prefix)
	case strings.ContainsRune(t.Prefix, 0):
		return fmt.Errorf("topic prefix %q contains a NUL byte", t.Prefix)
	}
	return nil
}

// For returns the topic a device publishes on.
func (t Topics) For(id message.DeviceID) string {
	return t.Prefix + "/" + id.String()
}

// Parse returns the device that publishes on topic.
func (t Topics) Parse(topic string) (message.DeviceID, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return 0, fmt.Errorf("topic %q is not under %q", topic, t.Prefix)
	}
	return message.ParseDeviceID(rest)
}
