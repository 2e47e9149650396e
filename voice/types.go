// Package voice defines the shared types and interfaces of the
// voice-interaction core: the content model, speech settings, and the
// boundaries to the speech backend, the input recognizer, the content
// source, and the visual affordance hooks.
package voice

import "time"

// BlockType classifies a content block by its semantic role.
type BlockType int

const (
	// BlockParagraph is a plain paragraph of text.
	BlockParagraph BlockType = iota
	// BlockHeading is a section heading.
	BlockHeading
	// BlockListItem is a single list item.
	BlockListItem
	// BlockQuote is a block quotation.
	BlockQuote
	// BlockCode is a code block.
	BlockCode
)

// String returns the string representation of the block type.
func (t BlockType) String() string {
	switch t {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockListItem:
		return "list-item"
	case BlockQuote:
		return "quote"
	case BlockCode:
		return "code"
	default:
		return "unknown"
	}
}

// ContentBlock is one semantic unit of extracted page text, the unit of
// traversal for reading. Blocks are produced by a content source and
// never mutated by the core; a reading session only indexes into an
// immutable snapshot.
type ContentBlock struct {
	Text         string    // Plain text content
	Type         BlockType // Semantic role of the block
	IsHeading    bool      // True for heading blocks
	HeadingLevel int       // Heading level (1-6) when IsHeading is set
	Position     int       // Vertical position in the page, in pixels
}

// Voice describes one synthesizer voice.
type Voice struct {
	ID       string // Voice identifier
	Name     string // Human-readable name
	Language string // Language code (e.g. "en-US")
	Gender   string // Voice gender
}

// Settings holds the per-utterance speech parameters.
type Settings struct {
	Voice    string  `yaml:"voice" env:"HODA_SPEECH_VOICE"`
	Language string  `yaml:"language" env:"HODA_SPEECH_LANGUAGE"`
	Rate     float64 `yaml:"rate" env:"HODA_SPEECH_RATE"`
	Pitch    float64 `yaml:"pitch" env:"HODA_SPEECH_PITCH"`
	Volume   float64 `yaml:"volume" env:"HODA_SPEECH_VOLUME"`
}

// DefaultSettings returns the default speech settings.
func DefaultSettings() Settings {
	return Settings{
		Language: "en-US",
		Rate:     1.0,
		Pitch:    1.0,
		Volume:   1.0,
	}
}

// SettingsPatch is a partial settings update. Nil fields keep the
// current value.
type SettingsPatch struct {
	Voice    *string
	Language *string
	Rate     *float64
	Pitch    *float64
	Volume   *float64
}

// Apply merges the patch into s and returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Voice != nil {
		s.Voice = *p.Voice
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Rate != nil {
		s.Rate = *p.Rate
	}
	if p.Pitch != nil {
		s.Pitch = *p.Pitch
	}
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	return s
}

// Result reports the outcome of a session or coordinator operation.
// Failed operations carry a machine-readable reason code instead of an
// error: wrong-state calls are expected and must never be fatal.
type Result struct {
	OK     bool   // True when the operation took effect
	Reason string // Reason code when OK is false
}

// Succeed returns a successful result.
func Succeed() Result { return Result{OK: true} }

// Fail returns a failed result with the given reason code.
func Fail(reason string) Result { return Result{Reason: reason} }

// EstimateSpeakingDuration estimates how long text takes to speak at
// the given rate multiplier, assuming roughly 150 words per minute.
func EstimateSpeakingDuration(text string, rate float64) time.Duration {
	words := len(text) / 5 // rough estimate: 5 chars per word
	if words < 1 {
		words = 1
	}
	if rate <= 0 {
		rate = 1.0
	}
	seconds := float64(words) * 60.0 / (150.0 * rate)
	return time.Duration(seconds * float64(time.Second))
}
