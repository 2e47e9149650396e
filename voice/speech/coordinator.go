// Package speech serializes all spoken output. The Coordinator
// guarantees a single globally active utterance and keeps the external
// recognizer muted while speaking; it is the sole owner of both.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/hodavoice/voice"
)

// Policy decides what happens when Speak is called while an utterance
// is already active.
type Policy int

const (
	// PolicyReplace cancels the active utterance and speaks the new
	// one. This is the default.
	PolicyReplace Policy = iota
	// PolicyQueue appends the new utterance and speaks it in turn.
	PolicyQueue
	// PolicyReject fails the new call immediately.
	PolicyReject
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyReplace:
		return "replace"
	case PolicyQueue:
		return "queue"
	case PolicyReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "replace", "":
		return PolicyReplace, nil
	case "queue":
		return PolicyQueue, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyReplace, fmt.Errorf("%w: unknown speech policy %q", voice.ErrInvalidConfig, s)
	}
}

// Priority orders queued utterances. When a turn opens up under the
// queue policy, the highest-priority waiter takes it; ties go in FIFO
// order.
type Priority int

const (
	// PriorityNormal is the default for content speech.
	PriorityNormal Priority = iota
	// PriorityHigh is for announcements that should jump the queue.
	PriorityHigh
)

// Request is one unit of speech: its text, queue priority, and
// optional per-utterance setting overrides.
type Request struct {
	Text     string
	Priority Priority
	Settings *voice.SettingsPatch
}

// Coordinator serializes utterances through the backend and mutes the
// recognizer around them. It is safe for concurrent producers:
// confirmation messages, content reading, and onboarding can all call
// Speak without coordinating with each other.
type Coordinator struct {
	backend    voice.Backend
	recognizer voice.Recognizer
	clock      voice.Clock
	logger     *log.Logger

	mu       sync.Mutex
	enabled  bool
	policy   Policy
	settings voice.Settings
	settle   time.Duration

	current          *utterance
	waiters          []*waiter
	stops            uint64
	recognizerPaused bool
}

// utterance tracks the one active speech request.
type utterance struct {
	cancel   context.CancelFunc
	replaced bool // cancelled by a replacing call or Stop
}

// waiter is a Speak call waiting for its turn under the queue or
// replace policy.
type waiter struct {
	turn     chan struct{}
	priority Priority
	aborted  bool
}

// NewCoordinator creates a coordinator for the given backend and
// recognizer.
func NewCoordinator(backend voice.Backend, recognizer voice.Recognizer, clock voice.Clock, cfg voice.SpeechConfig) (*Coordinator, error) {
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		backend:    backend,
		recognizer: recognizer,
		clock:      clock,
		logger:     log.Default(),
		enabled:    true,
		policy:     policy,
		settings:   cfg.Settings,
		settle:     cfg.SettleDelay,
	}, nil
}

// SetLogger replaces the coordinator's logger.
func (c *Coordinator) SetLogger(logger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Speak speaks text with the coordinator's current settings. It blocks
// until the utterance completes (including the settle delay before the
// recognizer is resumed) and reports whether the utterance was spoken
// to the end. Disabled output and empty or whitespace-only text fail
// fast with (false, nil); a replaced utterance settles with
// (false, nil) as well. Backend failures are returned to the caller
// after the recognizer link has been restored.
func (c *Coordinator) Speak(ctx context.Context, text string) (bool, error) {
	return c.speak(ctx, Request{Text: text})
}

// SpeakWith is Speak with per-utterance setting overrides.
func (c *Coordinator) SpeakWith(ctx context.Context, text string, patch voice.SettingsPatch) (bool, error) {
	return c.speak(ctx, Request{Text: text, Settings: &patch})
}

// SpeakRequest is Speak with full control over priority and settings.
func (c *Coordinator) SpeakRequest(ctx context.Context, req Request) (bool, error) {
	return c.speak(ctx, req)
}

func (c *Coordinator) speak(ctx context.Context, req Request) (bool, error) {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return false, nil
	}

	for c.current != nil {
		switch c.policy {
		case PolicyReject:
			c.mu.Unlock()
			return false, voice.ErrAlreadySpeaking
		case PolicyReplace:
			c.current.replaced = true
			c.current.cancel()
			c.backend.Cancel()
			// Earlier replaced calls may still be queued while the
			// cancelled utterance unwinds; supersede them too so only
			// the most recent call speaks.
			for _, stale := range c.waiters {
				stale.aborted = true
				close(stale.turn)
			}
			c.waiters = nil
		}

		// Both replace and queue wait for the active utterance to
		// release its turn; under replace the wait is short because
		// the utterance was just cancelled.
		w := &waiter{turn: make(chan struct{}), priority: req.Priority}
		c.waiters = append(c.waiters, w)
		stops := c.stops
		c.mu.Unlock()

		select {
		case <-w.turn:
		case <-ctx.Done():
			c.mu.Lock()
			if !c.removeWaiter(w) && !w.aborted {
				// The turn was handed to this call as it was
				// cancelled; pass it on so queued callers are not
				// stranded.
				c.handOffLocked()
			}
			c.mu.Unlock()
			c.resumeRecognizer()
			return false, ctx.Err()
		}

		c.mu.Lock()
		if w.aborted || c.stops != stops {
			// Aborted while queued, or Stop landed between the handoff
			// and this call claiming the turn.
			c.mu.Unlock()
			c.resumeRecognizer()
			return false, nil
		}
	}

	if !c.enabled {
		c.handOffLocked()
		c.mu.Unlock()
		c.resumeRecognizer()
		return false, nil
	}

	settings := c.settings
	if req.Settings != nil {
		settings = req.Settings.Apply(settings)
	}

	sctx, cancel := context.WithCancel(ctx)
	u := &utterance{cancel: cancel}
	c.current = u

	// Mute the recognizer before any audio. Best-effort: a failing
	// hook is logged, never propagated.
	if !c.recognizerPaused {
		c.recognizerPaused = true
		if err := c.recognizer.PauseForTTS(); err != nil {
			c.logger.Warn("recognizer pause failed", "error", err)
		}
	}
	logger := c.logger
	settle := c.settle
	c.mu.Unlock()

	err := c.backend.Speak(sctx, text, settings)
	cancel()

	c.mu.Lock()
	c.current = nil
	replaced := u.replaced
	handoff := c.handOffLocked()
	c.mu.Unlock()

	switch {
	case err == nil:
		if !handoff {
			if settle > 0 {
				<-c.clock.After(settle)
			}
			c.resumeRecognizer()
		}
		return true, nil
	case replaced:
		if !handoff {
			c.resumeRecognizer()
		}
		return false, nil
	case ctx.Err() != nil:
		if !handoff {
			c.resumeRecognizer()
		}
		return false, ctx.Err()
	default:
		// Backend failure: restore the recognizer immediately, no
		// settle delay, then surface the error.
		if !handoff {
			c.resumeRecognizer()
		}
		logger.Error("speech backend failed", "error", err)
		return false, err
	}
}

// Stop cancels the active utterance and any queued work, then signals
// the recognizer to resume immediately, bypassing the settle delay.
// The stop counter also catches a waiter that already holds the turn
// but has not claimed the active slot yet.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stops++
	if c.current != nil {
		c.current.replaced = true
		c.current.cancel()
		c.backend.Cancel()
	}
	for _, w := range c.waiters {
		w.aborted = true
		close(w.turn)
	}
	c.waiters = nil
	c.mu.Unlock()

	c.resumeRecognizer()
}

// Pause suspends audio playback. The recognizer link is untouched.
func (c *Coordinator) Pause() error {
	return c.backend.Pause()
}

// Resume continues suspended audio playback. The recognizer link is
// untouched.
func (c *Coordinator) Resume() error {
	return c.backend.Resume()
}

// SetEnabled enables or disables speech output. Disabling stops any
// active utterance.
func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()
	if !enabled {
		c.Stop()
	}
}

// Enabled reports whether speech output is enabled.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// IsSpeaking reports whether an utterance is currently active.
func (c *Coordinator) IsSpeaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// UpdateSettings merges a partial settings update into the defaults
// used for subsequent utterances.
func (c *Coordinator) UpdateSettings(patch voice.SettingsPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = patch.Apply(c.settings)
}

// Settings returns the current default settings.
func (c *Coordinator) Settings() voice.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// ApplyConfig replaces policy, settle delay, and default settings,
// typically from a config reload.
func (c *Coordinator) ApplyConfig(cfg voice.SpeechConfig) error {
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = policy
	c.settle = cfg.SettleDelay
	c.settings = cfg.Settings
	return nil
}

// handOffLocked releases the turn to the oldest waiter of the highest
// priority present. The recognizer stays muted across the handoff so
// consecutive utterances do not bounce the recognizer link.
func (c *Coordinator) handOffLocked() bool {
	if len(c.waiters) == 0 {
		return false
	}
	best := 0
	for i, w := range c.waiters {
		if w.priority > c.waiters[best].priority {
			best = i
		}
	}
	w := c.waiters[best]
	c.waiters = append(c.waiters[:best], c.waiters[best+1:]...)
	close(w.turn)
	return true
}

// resumeRecognizer restores the recognizer link, unless another
// utterance took over in the meantime. This check makes the resume
// signal fire exactly once per mute no matter how many producers race.
func (c *Coordinator) resumeRecognizer() {
	c.mu.Lock()
	if c.current != nil || len(c.waiters) > 0 || !c.recognizerPaused {
		c.mu.Unlock()
		return
	}
	c.recognizerPaused = false
	logger := c.logger
	c.mu.Unlock()

	if err := c.recognizer.ResumeAfterTTS(); err != nil {
		logger.Warn("recognizer resume failed", "error", err)
	}
}

// removeWaiter reports whether the waiter was still queued.
func (c *Coordinator) removeWaiter(target *waiter) bool {
	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
