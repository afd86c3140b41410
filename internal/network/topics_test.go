package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldnet/internal/message"
)

func TestTopics_ForAndParse(t *testing.T) {
	topics, err := NewTopics("fieldnet/exports")
	require.NoError(t, err)

	assert.Equal(t, "fieldnet/exports/3", topics.For(3))
	assert.Equal(t, "fieldnet/exports/-1", topics.For(-1))

	for _, id := range []message.DeviceID{0, 1, 42, -7, 2147483647} {
		got, err := topics.Parse(topics.For(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestTopics_CollisionFree(t *testing.T) {
	topics := Topics{Prefix: DefaultTopicPrefix}

	seen := make(map[string]message.DeviceID)
	for id := message.DeviceID(-100); id <= 100; id++ {
		topic := topics.For(id)
		prev, dup := seen[topic]
		require.False(t, dup, "devices %d and %d share topic %s", prev, id, topic)
		seen[topic] = id
	}
}

func TestTopics_ParseRejects(t *testing.T) {
	topics := Topics{Prefix: "a/b"}

	for _, topic := range []string{
		"a/b",
		"a/b/",
		"a/c/1",
		"a/b/1/2",
		"a/b/x",
		"a/bb/1",
	} {
		_, err := topics.Parse(topic)
		assert.Error(t, err, topic)
	}
}

func TestNewTopics_Validation(t *testing.T) {
	tests := []struct {
		prefix string
		valid  bool
	}{
		{"fieldnet/exports", true},
		{"devices", true},
		{"", false},
		{"a/+/b", false},
		{"a/#", false},
		{"trailing/", false},
		{"nul\x00", false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			_, err := NewTopics(tt.prefix)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
