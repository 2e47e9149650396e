package voice

import "time"

// Messages emitted by the core for a Bubble Tea host. The core never
// talks to a UI directly; hosts receive these through a notify
// callback and feed them into their program.

// ReadingStateMsg reports a reading session state change.
type ReadingStateMsg struct {
	State string // idle, reading, paused, stopped
	Index int    // Current block index
	Total int    // Total number of blocks
}

// BlockChangedMsg reports that the session moved to a new block.
type BlockChangedMsg struct {
	Index int          // New block index
	Block ContentBlock // The block now in focus
	Total int          // Total number of blocks
}

// WakeMsg reports that the wake machine transitioned to Awake.
type WakeMsg struct {
	At time.Time // When the transition occurred
}

// SleepMsg reports that the wake machine transitioned to Asleep.
type SleepMsg struct {
	Timeout bool // True when the inactivity timer caused the sleep
}

// CommandMsg reports a command extracted from recognized text.
type CommandMsg struct {
	Command string // The command text, case-folded
	Direct  bool   // True when issued without the wake word
}

// SpeechErrorMsg reports a backend failure surfaced by the coordinator.
type SpeechErrorMsg struct {
	Err  error
	Text string // The utterance that failed
}
