package wake

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/hodavoice/voice"
)

// Kind classifies the outcome of processing recognized text.
type Kind int

const (
	// KindWake means the wake phrase was heard with no command.
	KindWake Kind = iota
	// KindWakeAndCommand means the wake phrase was heard followed by
	// a command.
	KindWakeAndCommand
	// KindCommand means a command was heard while already awake.
	KindCommand
	// KindDirectCommand means a command was accepted without the wake
	// phrase because the configuration does not require it.
	KindDirectCommand
	// KindIgnored means the text was dropped.
	KindIgnored
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindWake:
		return "wake"
	case KindWakeAndCommand:
		return "wake_and_command"
	case KindCommand:
		return "command"
	case KindDirectCommand:
		return "direct_command"
	case KindIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Classification is the result of processing one recognized utterance.
type Classification struct {
	Kind    Kind
	Command string // Extracted command, case-folded; empty when none
	Reason  string // Why the text was ignored, for KindIgnored
}

// Machine is the asleep/awake state machine. Hearing the wake phrase
// opens an activation window that an inactivity timer closes again;
// commands heard inside the window are accepted without the phrase.
type Machine struct {
	mu     sync.Mutex
	clock  voice.Clock
	logger *log.Logger

	phrase   string // case-folded wake phrase
	required bool
	timeout  time.Duration

	awake  bool
	wokeAt time.Time
	timer  voice.Timer

	onWake    []func()
	onSleep   []func()
	onCommand []func(string)
}

// NewMachine creates a wake machine in the Asleep state.
func NewMachine(cfg voice.WakeConfig, clock voice.Clock) *Machine {
	return &Machine{
		clock:    clock,
		logger:   log.Default(),
		phrase:   Fold(strings.TrimSpace(cfg.Phrase)),
		required: cfg.Required,
		timeout:  cfg.Timeout,
	}
}

// SetLogger replaces the machine's logger.
func (m *Machine) SetLogger(logger *log.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// Process classifies recognized text and applies the resulting state
// transitions. A heard wake phrase always wakes the machine. A command
// heard while already awake consumes the activation window: the
// machine sleeps again right after. A combined wake+command utterance
// leaves the machine awake for a follow-up.
func (m *Machine) Process(text string) Classification {
	folded := Fold(strings.TrimSpace(text))
	if folded == "" {
		return Classification{Kind: KindIgnored, Reason: "empty"}
	}

	remainder, found := MatchPhrase(folded, m.phrase)
	if found {
		m.Wake()
		if remainder != "" {
			m.notifyCommand(remainder)
			return Classification{Kind: KindWakeAndCommand, Command: remainder}
		}
		return Classification{Kind: KindWake}
	}

	m.mu.Lock()
	awake := m.awake
	required := m.required
	m.mu.Unlock()

	if awake {
		m.notifyCommand(folded)
		m.sleep(false)
		return Classification{Kind: KindCommand, Command: folded}
	}

	if !required {
		m.notifyCommand(folded)
		return Classification{Kind: KindDirectCommand, Command: folded}
	}

	return Classification{Kind: KindIgnored, Reason: voice.ReasonWakeWordRequired}
}

// Wake transitions to Awake and arms the inactivity timer. When
// already awake it only re-arms the timer; there is never more than
// one armed timer.
func (m *Machine) Wake() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.awake {
		m.wokeAt = m.clock.Now()
		m.timer = m.clock.AfterFunc(m.timeout, m.timeoutSleep)
		m.mu.Unlock()
		return
	}
	m.awake = true
	m.wokeAt = m.clock.Now()
	m.timer = m.clock.AfterFunc(m.timeout, m.timeoutSleep)
	listeners := append([]func(){}, m.onWake...)
	m.mu.Unlock()

	m.logger.Debug("wake", "timeout", m.timeout)
	m.notifyAll(listeners)
}

// Sleep transitions to Asleep and clears the inactivity timer. It is a
// no-op when already asleep.
func (m *Machine) Sleep() {
	m.sleep(false)
}

func (m *Machine) timeoutSleep() {
	m.sleep(true)
}

func (m *Machine) sleep(timedOut bool) {
	m.mu.Lock()
	if !m.awake {
		m.mu.Unlock()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.awake = false
	listeners := append([]func(){}, m.onSleep...)
	m.mu.Unlock()

	m.logger.Debug("sleep", "timeout", timedOut)
	m.notifyAll(listeners)
}

// IsAwake reports whether the machine is in the Awake state.
func (m *Machine) IsAwake() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awake
}

// TimeRemaining returns the time left in the activation window. The
// second return is false when the machine is asleep.
func (m *Machine) TimeRemaining() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.awake {
		return 0, false
	}
	rem := m.timeout - m.clock.Now().Sub(m.wokeAt)
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

// OnWake registers a listener for transitions to Awake.
func (m *Machine) OnWake(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWake = append(m.onWake, fn)
}

// OnSleep registers a listener for transitions to Asleep.
func (m *Machine) OnSleep(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSleep = append(m.onSleep, fn)
}

// OnCommand registers a listener for extracted commands.
func (m *Machine) OnCommand(fn func(command string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCommand = append(m.onCommand, fn)
}

func (m *Machine) notifyCommand(command string) {
	m.mu.Lock()
	listeners := append([]func(string){}, m.onCommand...)
	m.mu.Unlock()
	for _, fn := range listeners {
		m.safeCall(func() { fn(command) })
	}
}

func (m *Machine) notifyAll(listeners []func()) {
	for _, fn := range listeners {
		m.safeCall(fn)
	}
}

// safeCall isolates listener panics: one failing listener must not
// prevent the rest from being notified.
func (m *Machine) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("wake listener panicked", "panic", r)
		}
	}()
	fn()
}
