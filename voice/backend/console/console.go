// Package console provides a speech backend that "speaks" by logging
// each utterance and sleeping its estimated duration. It stands in for
// a real synthesizer in the demo shell.
package console

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/hodavoice/voice"
)

// Backend implements voice.Backend on a logger.
type Backend struct {
	logger *log.Logger

	mu     sync.Mutex
	speed  float64
	paused bool
}

// New creates a console backend. speed scales utterance duration:
// 1.0 is real time, higher is faster (useful for demos).
func New(logger *log.Logger, speed float64) *Backend {
	if speed <= 0 {
		speed = 1.0
	}
	return &Backend{logger: logger, speed: speed}
}

// Speak logs the utterance and blocks for its estimated speaking
// duration, or until ctx is cancelled.
func (b *Backend) Speak(ctx context.Context, text string, settings voice.Settings) error {
	b.mu.Lock()
	speed := b.speed
	b.mu.Unlock()

	d := voice.EstimateSpeakingDuration(text, settings.Rate*speed)
	b.logger.Info("speaking", "text", text, "duration", d)

	timer := voice.SystemClock().After(d)
	select {
	case <-timer:
		return nil
	case <-ctx.Done():
		b.logger.Debug("utterance cancelled", "text", text)
		return ctx.Err()
	}
}

// Cancel is a no-op: the coordinator cancels the utterance context,
// which is what actually cuts a console utterance short.
func (b *Backend) Cancel() {}

// Pause marks playback paused.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
	b.logger.Debug("playback paused")
	return nil
}

// Resume marks playback resumed.
func (b *Backend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = false
	b.logger.Debug("playback resumed")
	return nil
}

// Voices returns the single console voice.
func (b *Backend) Voices() []voice.Voice {
	return []voice.Voice{
		{ID: "console", Name: "Console", Language: "en-US", Gender: "neutral"},
	}
}
