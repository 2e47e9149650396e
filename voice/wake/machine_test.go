package wake_test

import (
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/wake"
)

func testConfig() voice.WakeConfig {
	return voice.WakeConfig{
		Phrase:   "hoda",
		Required: true,
		Timeout:  5 * time.Second,
	}
}

func newTestMachine(cfg voice.WakeConfig) (*wake.Machine, *voice.FakeClock) {
	clock := voice.NewFakeClock(time.Unix(0, 0))
	return wake.NewMachine(cfg, clock), clock
}

// TestProcessClassification tests classification of recognized text.
func TestProcessClassification(t *testing.T) {
	tests := []struct {
		name     string
		required bool
		awake    bool
		text     string
		kind     wake.Kind
		command  string
		reason   string
	}{
		{
			name:     "bare wake phrase",
			required: true,
			text:     "hoda",
			kind:     wake.KindWake,
		},
		{
			name:     "wake phrase with command",
			required: true,
			text:     "hoda scroll down",
			kind:     wake.KindWakeAndCommand,
			command:  "scroll down",
		},
		{
			name:     "wake phrase case folded",
			required: true,
			text:     "HODA Read Page",
			kind:     wake.KindWakeAndCommand,
			command:  "read page",
		},
		{
			name:     "command while asleep is ignored",
			required: true,
			text:     "read page",
			kind:     wake.KindIgnored,
			reason:   voice.ReasonWakeWordRequired,
		},
		{
			name:     "command while awake",
			required: true,
			awake:    true,
			text:     "read page",
			kind:     wake.KindCommand,
			command:  "read page",
		},
		{
			name:     "command without wake word when not required",
			required: false,
			text:     "scroll down",
			kind:     wake.KindDirectCommand,
			command:  "scroll down",
		},
		{
			name:     "empty text is ignored",
			required: true,
			text:     "   ",
			kind:     wake.KindIgnored,
			reason:   "empty",
		},
		{
			name:     "substring of a longer word is not the phrase",
			required: true,
			text:     "hodaville",
			kind:     wake.KindIgnored,
			reason:   voice.ReasonWakeWordRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Required = tt.required
			m, _ := newTestMachine(cfg)
			if tt.awake {
				m.Wake()
			}

			c := m.Process(tt.text)
			if c.Kind != tt.kind {
				t.Fatalf("Process(%q).Kind = %v, want %v", tt.text, c.Kind, tt.kind)
			}
			if c.Command != tt.command {
				t.Errorf("Process(%q).Command = %q, want %q", tt.text, c.Command, tt.command)
			}
			if c.Reason != tt.reason {
				t.Errorf("Process(%q).Reason = %q, want %q", tt.text, c.Reason, tt.reason)
			}
		})
	}
}

// TestCommandWhileAwakeConsumesWindow verifies a command heard inside
// the activation window puts the machine back to sleep, while a
// combined wake+command leaves it awake.
func TestCommandWhileAwakeConsumesWindow(t *testing.T) {
	m, _ := newTestMachine(testConfig())

	m.Process("hoda")
	if !m.IsAwake() {
		t.Fatal("expected machine awake after wake phrase")
	}
	m.Process("read page")
	if m.IsAwake() {
		t.Error("expected machine asleep after consuming a command")
	}

	m.Process("hoda read page")
	if !m.IsAwake() {
		t.Error("expected machine to stay awake after wake+command")
	}
}

// TestTimeoutAutoSleep verifies the inactivity timer closes the window.
func TestTimeoutAutoSleep(t *testing.T) {
	m, clock := newTestMachine(testConfig())

	var slept bool
	var mu sync.Mutex
	m.OnSleep(func() {
		mu.Lock()
		slept = true
		mu.Unlock()
	})

	m.Wake()
	clock.Advance(4 * time.Second)
	if !m.IsAwake() {
		t.Fatal("machine slept before the timeout")
	}
	clock.Advance(time.Second)
	if m.IsAwake() {
		t.Fatal("machine still awake after the timeout")
	}
	mu.Lock()
	defer mu.Unlock()
	if !slept {
		t.Error("sleep listener was not called")
	}
}

// TestWakeRearmsTimer verifies hearing the phrase again restarts the
// activation window instead of stacking a second timer.
func TestWakeRearmsTimer(t *testing.T) {
	m, clock := newTestMachine(testConfig())

	m.Process("hoda")
	clock.Advance(3 * time.Second)
	m.Process("hoda")

	clock.Advance(3 * time.Second)
	if !m.IsAwake() {
		t.Fatal("rearmed window expired too early")
	}
	clock.Advance(2 * time.Second)
	if m.IsAwake() {
		t.Fatal("rearmed window did not expire")
	}
}

// TestTimeRemaining tests the countdown readout.
func TestTimeRemaining(t *testing.T) {
	m, clock := newTestMachine(testConfig())

	if _, ok := m.TimeRemaining(); ok {
		t.Fatal("expected no remaining time while asleep")
	}

	m.Wake()
	clock.Advance(2 * time.Second)
	rem, ok := m.TimeRemaining()
	if !ok {
		t.Fatal("expected remaining time while awake")
	}
	if rem != 3*time.Second {
		t.Errorf("TimeRemaining() = %v, want %v", rem, 3*time.Second)
	}
}

// TestSleepIsIdempotent verifies sleeping twice only notifies once.
func TestSleepIsIdempotent(t *testing.T) {
	m, _ := newTestMachine(testConfig())

	var calls int
	var mu sync.Mutex
	m.OnSleep(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	m.Wake()
	m.Sleep()
	m.Sleep()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("sleep listener called %d times, want 1", calls)
	}
}

// TestListenerPanicIsolation verifies one panicking listener does not
// block the rest.
func TestListenerPanicIsolation(t *testing.T) {
	m, _ := newTestMachine(testConfig())

	var called bool
	var mu sync.Mutex
	m.OnWake(func() { panic("bad listener") })
	m.OnWake(func() {
		mu.Lock()
		called = true
		mu.Unlock()
	})

	m.Wake()

	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("listener after the panicking one was not called")
	}
}

// TestCommandListener verifies extracted commands reach the listener
// for every accepting classification.
func TestCommandListener(t *testing.T) {
	cfg := testConfig()
	cfg.Required = false
	m, _ := newTestMachine(cfg)

	var commands []string
	var mu sync.Mutex
	m.OnCommand(func(command string) {
		mu.Lock()
		commands = append(commands, command)
		mu.Unlock()
	})

	m.Process("hoda read page") // wake_and_command
	m.Process("next paragraph") // command (awake)
	m.Process("scroll down")    // direct_command (asleep, not required)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"read page", "next paragraph", "scroll down"}
	if len(commands) != len(want) {
		t.Fatalf("got %d commands %v, want %d", len(commands), commands, len(want))
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Errorf("commands[%d] = %q, want %q", i, commands[i], want[i])
		}
	}
}
