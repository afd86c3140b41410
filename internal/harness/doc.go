// Package harness runs gradient scenarios against the in-process simulation
// and checks the outcome.
//
// A scenario is a YAML file naming a topology, the source devices, the
// mailbox policy and the number of rounds, plus assertions on the result:
//
//	name: line-single-source
//	description: distances grow by one hop away from device 3
//	devices: 5
//	sources: [3]
//	rounds: 10
//	assertions:
//	  - type: final_values
//	    values: {1: 2, 2: 1, 3: 0, 4: 1, 5: 2}
//	  - type: trace_value
//	    device: 1
//	    round: 0
//	    value: .inf
//
// Runs are deterministic: timestamps come from a deterministic clock and
// the run ID is fixed, so the per-round trace of a scenario can be compared
// against a golden snapshot.
package harness
