package testutil

// FixedRunIDGenerator returns the same run ID every time.
//
// Run IDs tag every round a platform records in the trace store. A fixed ID
// makes recorded traces comparable across test runs.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run ID generator.
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements platform.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
