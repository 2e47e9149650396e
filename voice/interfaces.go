package voice

import "context"

// Backend defines the interface to a speech-output engine. The core
// treats it as an external collaborator: it produces audio for one
// utterance at a time and reports completion through the Speak return.
type Backend interface {
	// Speak synthesizes and plays text with the given settings. It
	// blocks until the utterance finishes, fails, or ctx is cancelled.
	Speak(ctx context.Context, text string, settings Settings) error

	// Cancel cuts the in-flight utterance immediately, if any.
	Cancel()

	// Pause suspends audio playback without discarding the utterance.
	Pause() error

	// Resume continues playback from the paused position.
	Resume() error

	// Voices returns the list of available voices.
	Voices() []Voice
}

// Recognizer is the speech-input service the coordinator mutes around
// its own output. Both hooks are best-effort: failures are logged by
// the caller and never propagated.
type Recognizer interface {
	// PauseForTTS suspends input recognition before speech output.
	PauseForTTS() error

	// ResumeAfterTTS re-enables input recognition after speech output.
	ResumeAfterTTS() error
}

// ContentSource supplies the ordered content-block snapshot a reading
// session traverses. Implementations own the blocks; the session only
// borrows them.
type ContentSource interface {
	// Blocks returns all eligible blocks in document order.
	Blocks() []ContentBlock

	// BlocksFrom returns the blocks positioned at or below offset,
	// with a backward tolerance so a block straddling the boundary is
	// still included.
	BlocksFrom(offset, tolerance int) []ContentBlock
}

// Visual receives the visual affordance side effects of reading:
// scrolling to and highlighting the block being spoken.
type Visual interface {
	// ScrollTo moves the viewport to the block.
	ScrollTo(block ContentBlock)

	// Highlight marks the block as the one being spoken.
	Highlight(block ContentBlock)

	// ClearHighlights removes any highlight markers.
	ClearHighlights()
}

// NopVisual returns a Visual that does nothing, for hosts without a
// rendered page.
func NopVisual() Visual { return nopVisual{} }

type nopVisual struct{}

func (nopVisual) ScrollTo(ContentBlock)  {}
func (nopVisual) Highlight(ContentBlock) {}
func (nopVisual) ClearHighlights()       {}

// NopRecognizer returns a Recognizer whose hooks always succeed, for
// hosts without a speech-input service.
func NopRecognizer() Recognizer { return nopRecognizer{} }

type nopRecognizer struct{}

func (nopRecognizer) PauseForTTS() error    { return nil }
func (nopRecognizer) ResumeAfterTTS() error { return nil }
