// Package mock provides a scriptable speech backend for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/hodavoice/voice"
)

// Backend implements voice.Backend with controllable timing and
// failures. Utterances take a configurable real-time delay so tests
// can interleave cancellation and replacement.
type Backend struct {
	mu          sync.Mutex
	delay       time.Duration
	failNext    []error
	failAlways  error
	cancelCh    chan struct{}
	spoken      []string
	speakCalls  int
	cancelCalls int
	pauseCalls  int
	resumeCalls int
	paused      bool
}

// New creates a mock backend with a short default utterance delay.
func New() *Backend {
	return &Backend{delay: 5 * time.Millisecond}
}

// Speak simulates speaking text. It returns after the configured
// delay, or earlier with an error when cancelled or scripted to fail.
func (b *Backend) Speak(ctx context.Context, text string, _ voice.Settings) error {
	b.mu.Lock()
	b.speakCalls++
	b.spoken = append(b.spoken, text)
	var err error
	if len(b.failNext) > 0 {
		err = b.failNext[0]
		b.failNext = b.failNext[1:]
	} else if b.failAlways != nil {
		err = b.failAlways
	}
	delay := b.delay
	cancel := make(chan struct{})
	b.cancelCh = cancel
	b.mu.Unlock()

	if err != nil {
		return err
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-cancel:
		return context.Canceled
	}
}

// Cancel cuts the in-flight utterance.
func (b *Backend) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelCalls++
	if b.cancelCh != nil {
		select {
		case <-b.cancelCh:
		default:
			close(b.cancelCh)
		}
		b.cancelCh = nil
	}
}

// Pause records a playback pause.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauseCalls++
	b.paused = true
	return nil
}

// Resume records a playback resume.
func (b *Backend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resumeCalls++
	b.paused = false
	return nil
}

// Voices returns a fixed voice list.
func (b *Backend) Voices() []voice.Voice {
	return []voice.Voice{
		{ID: "mock-voice-1", Name: "Mock Voice", Language: "en-US", Gender: "neutral"},
	}
}

// Test control methods

// SetDelay sets the simulated utterance duration.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// FailNext scripts the next Speak call to fail with err.
func (b *Backend) FailNext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = append(b.failNext, err)
}

// FailAlways scripts every Speak call to fail with err. Pass nil to
// restore normal operation.
func (b *Backend) FailAlways(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAlways = err
}

// Spoken returns the texts passed to Speak, in call order.
func (b *Backend) Spoken() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.spoken...)
}

// SpeakCalls returns the number of Speak calls.
func (b *Backend) SpeakCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speakCalls
}

// CancelCalls returns the number of Cancel calls.
func (b *Backend) CancelCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelCalls
}

// IsPaused reports whether playback is paused.
func (b *Backend) IsPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}
