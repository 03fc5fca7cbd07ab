// Package reveal discloses a growing text over time. A Controller releases
// adaptive chunks of a known target text on every tick; a Feed forwards
// chunks pushed by an upstream source. Both notify observers with the
// revealed prefix.
package reveal

import "fmt"

// State of a reveal session.
type State int

const (
	Idle State = iota
	Running
	Completed
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the states reachable from each state.
var transitions = [...][]State{
	Idle:      {Running, Stopped},
	Running:   {Running, Completed, Stopped},
	Completed: {Running, Completed, Stopped},
	Stopped:   {Running},
}

// CanTransition reports whether the controller may move from s to to.
func (s State) CanTransition(to State) bool {
	if int(s) >= len(transitions) {
		return false
	}
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Snapshot is a read-only view of a reveal session.
type Snapshot struct {
	Text     string // revealed prefix
	Revealed int    // len(Text) in bytes
	Total    int    // length of the full target text in bytes
	Session  uint64 // increments whenever the reveal restarts from zero
	State    State
}

// Done reports whether the whole target text is revealed.
func (s Snapshot) Done() bool {
	return s.Revealed >= s.Total
}
