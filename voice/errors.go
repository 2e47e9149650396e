package voice

import "errors"

// Common errors for the voice core.
var (
	// Coordinator errors
	ErrAlreadySpeaking = errors.New("an utterance is already active")
	ErrSpeechDisabled  = errors.New("speech output is disabled")
	ErrEmptyText       = errors.New("empty or whitespace-only text")

	// Session errors
	ErrNotReading  = errors.New("session is not reading")
	ErrNotPaused   = errors.New("session is not paused")
	ErrNoBlocks    = errors.New("no readable blocks on the page")
	ErrEndOfPage   = errors.New("already at the end of the page")
	ErrAtBeginning = errors.New("already at the beginning")
	ErrNoSuchBlock = errors.New("no block at that index")

	// Wake errors
	ErrWakeWordRequired = errors.New("wake word required")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Reason codes carried by failed Results. They mirror the sentinel
// errors above but are stable strings safe to surface to callers.
const (
	ReasonNotReading       = "not-reading"
	ReasonNotPaused        = "not-paused"
	ReasonNoContent        = "no-content"
	ReasonEndOfPage        = "end-of-page"
	ReasonAtBeginning      = "at-beginning"
	ReasonNoNextBlock      = "no-next-block"
	ReasonNoPreviousBlock  = "no-previous-block"
	ReasonWakeWordRequired = "wake_word_required"
)
