package reading

// State represents the current state of a reading session.
type State int

const (
	// StateIdle indicates no reading session is active.
	StateIdle State = iota
	// StateReading indicates blocks are being spoken.
	StateReading
	// StatePaused indicates reading is suspended and resumable.
	StatePaused
	// StateStopped is the transient state while a session tears down;
	// it always settles back to Idle.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// transitions holds the valid state transitions. Stop is reachable
// from anywhere; the checks below only gate the narrower operations.
var transitions = map[State][]State{
	StateIdle:    {StateReading, StateStopped},
	StateReading: {StatePaused, StateStopped, StateIdle},
	StatePaused:  {StateReading, StateStopped},
	StateStopped: {StateIdle},
}

// canTransition reports whether moving from one state to another is
// valid.
func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
