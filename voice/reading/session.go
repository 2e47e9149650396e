// Package reading drives an ordered snapshot of content blocks through
// the speech coordinator, block by block, with play, pause, resume,
// stop, and seek semantics.
package reading

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/speech"
)

// Spoken announcements. Everything audible goes through the
// coordinator; the session never touches the backend directly.
const (
	announceStart     = "Reading page."
	announceNoContent = "Nothing to read on this page."
	announcePaused    = "Paused."
	announceResuming  = "Resuming."
	announceEndOfPage = "End of page."
)

// Session is the reading state machine. It borrows an immutable block
// snapshot from the content source, replaced wholesale on every new
// read request and discarded on stop or reset.
type Session struct {
	speaker *speech.Coordinator
	source  voice.ContentSource
	visual  voice.Visual
	clock   voice.Clock
	cfg     voice.ReadingConfig
	logger  *log.Logger
	notify  func(msg any)

	mu            sync.Mutex
	loopDone      *sync.Cond
	state         State
	blocks        []voice.ContentBlock
	index         int
	gen           uint64
	stopRequested bool
	loopRunning   bool
}

// NewSession creates an idle reading session.
func NewSession(speaker *speech.Coordinator, source voice.ContentSource, visual voice.Visual, clock voice.Clock, cfg voice.ReadingConfig) *Session {
	s := &Session{
		speaker: speaker,
		source:  source,
		visual:  visual,
		clock:   clock,
		logger:  log.Default(),
		cfg:     cfg,
	}
	s.loopDone = sync.NewCond(&s.mu)
	return s
}

// SetLogger replaces the session's logger.
func (s *Session) SetLogger(logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetNotify registers a host callback for session messages
// (voice.ReadingStateMsg, voice.BlockChangedMsg, voice.SpeechErrorMsg).
func (s *Session) SetNotify(fn func(msg any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// ReadPage snapshots all eligible blocks and starts reading from the
// top.
func (s *Session) ReadPage() voice.Result {
	return s.startReading(s.source.Blocks())
}

// ReadFromHere is ReadPage with the snapshot pre-filtered to blocks at
// or below the viewport offset, with a small backward tolerance so a
// block straddling the boundary is still included.
func (s *Session) ReadFromHere(offset int) voice.Result {
	return s.startReading(s.source.BlocksFrom(offset, s.cfg.ViewportTolerance))
}

func (s *Session) startReading(blocks []voice.ContentBlock) voice.Result {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		s.StopReading()
		s.mu.Lock()
	}
	if len(blocks) == 0 {
		s.mu.Unlock()
		go s.announce(announceNoContent)
		return voice.Fail(voice.ReasonNoContent)
	}
	s.blocks = blocks
	s.index = 0
	s.gen++
	s.stopRequested = false
	s.setStateLocked(StateReading)
	s.mu.Unlock()

	s.notifyState()
	go func() {
		s.announce(announceStart)
		s.loop()
	}()
	return voice.Succeed()
}

// PauseReading suspends an active reading session. It fails with
// reason not-reading from any other state.
func (s *Session) PauseReading() voice.Result {
	s.mu.Lock()
	if s.state != StateReading {
		s.mu.Unlock()
		return voice.Fail(voice.ReasonNotReading)
	}
	s.stopRequested = true
	s.setStateLocked(StatePaused)
	s.mu.Unlock()

	s.speaker.Stop()
	s.notifyState()
	go s.announce(announcePaused)
	return voice.Succeed()
}

// ResumeReading continues a paused session at the current index. It
// fails with reason not-paused from any other state.
func (s *Session) ResumeReading() voice.Result {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return voice.Fail(voice.ReasonNotPaused)
	}
	s.setStateLocked(StateReading)
	s.gen++
	s.stopRequested = false
	s.mu.Unlock()

	s.notifyState()
	go func() {
		s.announce(announceResuming)
		s.loop()
	}()
	return voice.Succeed()
}

// StopReading cancels the session from any state: the active utterance
// is hard-cancelled, visual markers are cleared, the snapshot is
// discarded, and the session returns to Idle.
func (s *Session) StopReading() voice.Result {
	s.mu.Lock()
	s.stopRequested = true
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	s.speaker.Stop()
	s.visual.ClearHighlights()

	s.mu.Lock()
	s.setStateLocked(StateIdle)
	s.blocks = nil
	s.index = 0
	s.mu.Unlock()

	s.notifyState()
	return voice.Succeed()
}

// Reset is StopReading plus a guarantee that no announcement follows;
// it always lands in Idle with an empty snapshot and no active
// utterance.
func (s *Session) Reset() voice.Result {
	return s.StopReading()
}

// NextParagraph moves to the next block.
func (s *Session) NextParagraph() voice.Result {
	return s.seek(1)
}

// PreviousParagraph moves to the previous block.
func (s *Session) PreviousParagraph() voice.Result {
	return s.seek(-1)
}

func (s *Session) seek(delta int) voice.Result {
	s.mu.Lock()
	if len(s.blocks) == 0 {
		s.mu.Unlock()
		return voice.Fail(voice.ReasonNoContent)
	}
	target := s.index + delta
	if target >= len(s.blocks) {
		reason := voice.ReasonNoNextBlock
		if s.index == len(s.blocks)-1 {
			reason = voice.ReasonEndOfPage
		}
		s.mu.Unlock()
		return voice.Fail(reason)
	}
	if target < 0 {
		reason := voice.ReasonNoPreviousBlock
		if s.index == 0 {
			reason = voice.ReasonAtBeginning
		}
		s.mu.Unlock()
		return voice.Fail(reason)
	}

	if s.state != StateReading {
		// Not reading: only move visual focus, no speech.
		s.index = target
		block := s.blocks[target]
		s.mu.Unlock()
		s.moveFocus(block)
		s.notifyBlock(target, block)
		return voice.Succeed()
	}

	s.stopRequested = true
	s.mu.Unlock()
	s.speaker.Stop()

	// Give the running loop time to observe the stop flag and unwind
	// before reading restarts at the new index.
	<-s.clock.After(s.cfg.SeekSettle)

	s.mu.Lock()
	if s.state != StateReading {
		// Stopped or paused while settling; leave the index alone.
		s.mu.Unlock()
		return voice.Fail(voice.ReasonNotReading)
	}
	s.gen++
	s.stopRequested = false
	s.index = target
	s.mu.Unlock()

	go s.loop()
	return voice.Succeed()
}

// GetState returns the current session state.
func (s *Session) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentIndex returns the index of the block in focus.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// BlockCount returns the size of the current snapshot.
func (s *Session) BlockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// loop is the reading loop. Only one instance runs at a time: a second
// invocation waits for the running one to unwind, then re-checks the
// session state before taking over. The loop captures the snapshot
// generation when it takes over and aborts once a restart or resume
// bumps it, so a superseded loop can never advance the fresh snapshot.
// The stop flag is consulted at every suspension point; highlights are
// cleared on every exit path.
func (s *Session) loop() {
	s.mu.Lock()
	for s.loopRunning {
		if s.stopRequested || s.state != StateReading {
			s.mu.Unlock()
			return
		}
		s.loopDone.Wait()
	}
	s.loopRunning = true
	gen := s.gen
	s.mu.Unlock()

	defer func() {
		s.visual.ClearHighlights()
		s.mu.Lock()
		s.loopRunning = false
		s.loopDone.Broadcast()
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if s.gen != gen || s.state != StateReading || s.stopRequested {
			s.mu.Unlock()
			return
		}
		if s.index < 0 || s.index >= len(s.blocks) {
			s.mu.Unlock()
			s.finish(gen)
			return
		}
		block := s.blocks[s.index]
		idx := s.index
		s.mu.Unlock()

		s.moveFocus(block)
		s.notifyBlock(idx, block)

		text := block.Text
		if block.IsHeading {
			text = fmt.Sprintf("Heading %d. %s", block.HeadingLevel, text)
		}
		if _, err := s.speaker.Speak(context.Background(), text); err != nil {
			// A failing block is skipped, not fatal: the session
			// advances past it.
			s.logger.Warn("block speech failed", "index", idx, "error", err)
			s.notifyMsg(voice.SpeechErrorMsg{Err: err, Text: block.Text})
		}

		s.mu.Lock()
		interrupted := s.gen != gen || s.stopRequested || s.state != StateReading
		s.mu.Unlock()
		if interrupted {
			return
		}

		<-s.clock.After(s.cfg.InterBlockPause)

		s.mu.Lock()
		if s.gen != gen || s.stopRequested || s.state != StateReading {
			s.mu.Unlock()
			return
		}
		s.index++
		done := s.index >= len(s.blocks)
		s.mu.Unlock()
		if done {
			s.finish(gen)
			return
		}
	}
}

// finish announces the end of the page and returns to Idle. A pause or
// restart during the announcement leaves the new state alone; a resume
// lands back here and finishes properly.
func (s *Session) finish(gen uint64) {
	s.announce(announceEndOfPage)
	s.mu.Lock()
	if s.gen == gen && s.state == StateReading {
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()
	s.notifyState()
}

// setStateLocked applies a transition when the table allows it.
func (s *Session) setStateLocked(to State) bool {
	if !canTransition(s.state, to) {
		s.logger.Debug("state transition rejected", "from", s.state, "to", to)
		return false
	}
	s.state = to
	return true
}

// announce speaks a status line ahead of queued content.
func (s *Session) announce(text string) {
	req := speech.Request{Text: text, Priority: speech.PriorityHigh}
	if _, err := s.speaker.SpeakRequest(context.Background(), req); err != nil {
		s.logger.Warn("announcement failed", "text", text, "error", err)
	}
}

func (s *Session) moveFocus(block voice.ContentBlock) {
	if s.cfg.ScrollEnabled {
		s.visual.ScrollTo(block)
	}
	if s.cfg.HighlightEnabled {
		s.visual.Highlight(block)
	}
}

func (s *Session) notifyState() {
	s.mu.Lock()
	msg := voice.ReadingStateMsg{State: s.state.String(), Index: s.index, Total: len(s.blocks)}
	s.mu.Unlock()
	s.notifyMsg(msg)
}

func (s *Session) notifyBlock(index int, block voice.ContentBlock) {
	s.mu.Lock()
	total := len(s.blocks)
	s.mu.Unlock()
	s.notifyMsg(voice.BlockChangedMsg{Index: index, Block: block, Total: total})
}

func (s *Session) notifyMsg(msg any) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
