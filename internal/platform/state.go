package platform

import "fmt"

// State is the phase the platform loop is in.
type State int32

const (
	Idle State = iota
	CollectingSnapshot
	Evaluating
	Publishing
	AwaitingUpdate
	Sleeping
)

var stateNames = [...]string{
	Idle:               "idle",
	CollectingSnapshot: "collecting-snapshot",
	Evaluating:         "evaluating",
	Publishing:         "publishing",
	AwaitingUpdate:     "awaiting-update",
	Sleeping:           "sleeping",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}
