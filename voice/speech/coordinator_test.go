package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/backend/mock"
	"github.com/dgnsrekt/hodavoice/voice/speech"
)

// recorder is a recognizer that records pause/resume events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PauseForTTS() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "pause")
	return nil
}

func (r *recorder) ResumeAfterTTS() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "resume")
	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

func newTestCoordinator(t *testing.T, policy string) (*speech.Coordinator, *mock.Backend, *recorder) {
	t.Helper()
	backend := mock.New()
	rec := &recorder{}
	cfg := voice.DefaultSpeechConfig()
	cfg.Policy = policy
	cfg.SettleDelay = 0
	c, err := speech.NewCoordinator(backend, rec, voice.SystemClock(), cfg)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	return c, backend, rec
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestSpeakSuccess verifies the basic speak path and the
// pause-speak-resume ordering around it.
func TestSpeakSuccess(t *testing.T) {
	c, backend, rec := newTestCoordinator(t, "replace")

	ok, err := c.Speak(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if !ok {
		t.Fatal("Speak() ok = false, want true")
	}

	spoken := backend.Spoken()
	if len(spoken) != 1 || spoken[0] != "hello" {
		t.Errorf("spoken = %v, want [hello]", spoken)
	}
	events := rec.Events()
	want := []string{"pause", "resume"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("recognizer events = %v, want %v", events, want)
	}
}

// TestSpeakEmptyText verifies empty and whitespace-only text fails fast
// without touching the backend.
func TestSpeakEmptyText(t *testing.T) {
	c, backend, rec := newTestCoordinator(t, "replace")

	for _, text := range []string{"", "   ", "\n\t"} {
		ok, err := c.Speak(context.Background(), text)
		if ok || err != nil {
			t.Errorf("Speak(%q) = (%v, %v), want (false, nil)", text, ok, err)
		}
	}
	if backend.SpeakCalls() != 0 {
		t.Errorf("backend called %d times for empty text", backend.SpeakCalls())
	}
	if len(rec.Events()) != 0 {
		t.Errorf("recognizer touched for empty text: %v", rec.Events())
	}
}

// TestSpeakDisabled verifies disabled output fails fast.
func TestSpeakDisabled(t *testing.T) {
	c, backend, _ := newTestCoordinator(t, "replace")
	c.SetEnabled(false)

	ok, err := c.Speak(context.Background(), "hello")
	if ok || err != nil {
		t.Fatalf("Speak() = (%v, %v), want (false, nil)", ok, err)
	}
	if backend.SpeakCalls() != 0 {
		t.Errorf("backend called while disabled")
	}
}

// TestReplacePolicy verifies the replace policy: the earlier call
// settles (false, nil), the later call speaks to completion, and the
// recognizer resumes exactly once.
func TestReplacePolicy(t *testing.T) {
	c, backend, rec := newTestCoordinator(t, "replace")
	backend.SetDelay(100 * time.Millisecond)

	type outcome struct {
		ok  bool
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		ok, err := c.Speak(context.Background(), "first")
		first <- outcome{ok, err}
	}()
	waitFor(t, "first utterance to start", c.IsSpeaking)

	backend.SetDelay(time.Millisecond)
	ok, err := c.Speak(context.Background(), "second")
	if err != nil {
		t.Fatalf("second Speak() error = %v", err)
	}
	if !ok {
		t.Fatal("second Speak() ok = false, want true")
	}

	got := <-first
	if got.ok || got.err != nil {
		t.Errorf("replaced Speak() = (%v, %v), want (false, nil)", got.ok, got.err)
	}

	spoken := backend.Spoken()
	if len(spoken) != 2 || spoken[0] != "first" || spoken[1] != "second" {
		t.Errorf("spoken = %v, want [first second]", spoken)
	}

	waitFor(t, "recognizer resume", func() bool {
		events := rec.Events()
		return len(events) > 0 && events[len(events)-1] == "resume"
	})
	resumes := 0
	for _, e := range rec.Events() {
		if e == "resume" {
			resumes++
		}
	}
	if resumes != 1 {
		t.Errorf("recognizer resumed %d times, want 1 (events %v)", resumes, rec.Events())
	}
}

// TestQueuePolicy verifies queued utterances are spoken in FIFO order
// and all complete successfully.
func TestQueuePolicy(t *testing.T) {
	c, backend, rec := newTestCoordinator(t, "queue")
	backend.SetDelay(20 * time.Millisecond)

	results := make(chan error, 3)
	go func() {
		ok, err := c.Speak(context.Background(), "one")
		if !ok && err == nil {
			err = errors.New("one was not spoken")
		}
		results <- err
	}()
	waitFor(t, "first utterance to start", c.IsSpeaking)

	go func() {
		ok, err := c.Speak(context.Background(), "two")
		if !ok && err == nil {
			err = errors.New("two was not spoken")
		}
		results <- err
	}()
	time.Sleep(5 * time.Millisecond) // let "two" enqueue before "three"
	go func() {
		ok, err := c.Speak(context.Background(), "three")
		if !ok && err == nil {
			err = errors.New("three was not spoken")
		}
		results <- err
	}()

	for i := 0; i < 3; i++ {
		if err := <-results; err != nil {
			t.Fatalf("queued Speak() error = %v", err)
		}
	}

	spoken := backend.Spoken()
	want := []string{"one", "two", "three"}
	if len(spoken) != len(want) {
		t.Fatalf("spoken = %v, want %v", spoken, want)
	}
	for i := range want {
		if spoken[i] != want[i] {
			t.Errorf("spoken[%d] = %q, want %q", i, spoken[i], want[i])
		}
	}

	// The recognizer stays muted across the handoffs: one pause, one
	// resume for the whole burst.
	waitFor(t, "recognizer resume", func() bool {
		events := rec.Events()
		return len(events) > 0 && events[len(events)-1] == "resume"
	})
	events := rec.Events()
	if len(events) != 2 || events[0] != "pause" || events[1] != "resume" {
		t.Errorf("recognizer events = %v, want [pause resume]", events)
	}
}

// TestQueuePriority verifies a high-priority request takes the next
// turn ahead of earlier normal-priority waiters.
func TestQueuePriority(t *testing.T) {
	c, backend, _ := newTestCoordinator(t, "queue")
	backend.SetDelay(30 * time.Millisecond)

	var wg sync.WaitGroup
	speak := func(req speech.Request) {
		defer wg.Done()
		if ok, err := c.SpeakRequest(context.Background(), req); !ok || err != nil {
			t.Errorf("SpeakRequest(%q) = (%v, %v), want (true, nil)", req.Text, ok, err)
		}
	}

	wg.Add(1)
	go speak(speech.Request{Text: "first"})
	waitFor(t, "first utterance to start", c.IsSpeaking)

	wg.Add(1)
	go speak(speech.Request{Text: "normal"})
	time.Sleep(5 * time.Millisecond) // let "normal" enqueue first
	wg.Add(1)
	go speak(speech.Request{Text: "urgent", Priority: speech.PriorityHigh})
	time.Sleep(5 * time.Millisecond) // and "urgent" before the handoff

	wg.Wait()

	spoken := backend.Spoken()
	want := []string{"first", "urgent", "normal"}
	if len(spoken) != len(want) {
		t.Fatalf("spoken = %v, want %v", spoken, want)
	}
	for i := range want {
		if spoken[i] != want[i] {
			t.Errorf("spoken[%d] = %q, want %q", i, spoken[i], want[i])
		}
	}
}

// TestRejectPolicy verifies a second call fails with ErrAlreadySpeaking
// while an utterance is active.
func TestRejectPolicy(t *testing.T) {
	c, backend, _ := newTestCoordinator(t, "reject")
	backend.SetDelay(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if ok, err := c.Speak(context.Background(), "first"); !ok || err != nil {
			t.Errorf("first Speak() = (%v, %v), want (true, nil)", ok, err)
		}
	}()
	waitFor(t, "first utterance to start", c.IsSpeaking)

	ok, err := c.Speak(context.Background(), "second")
	if !errors.Is(err, voice.ErrAlreadySpeaking) {
		t.Fatalf("second Speak() error = %v, want ErrAlreadySpeaking", err)
	}
	if ok {
		t.Error("rejected Speak() ok = true, want false")
	}
	<-done
}

// TestStop verifies Stop cancels the active utterance and resumes the
// recognizer without the settle delay.
func TestStop(t *testing.T) {
	c, backend, rec := newTestCoordinator(t, "replace")
	backend.SetDelay(time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if ok, err := c.Speak(context.Background(), "long utterance"); ok || err != nil {
			t.Errorf("stopped Speak() = (%v, %v), want (false, nil)", ok, err)
		}
	}()
	waitFor(t, "utterance to start", c.IsSpeaking)

	c.Stop()
	<-done

	waitFor(t, "recognizer resume", func() bool {
		events := rec.Events()
		return len(events) > 0 && events[len(events)-1] == "resume"
	})
}

// TestBackendErrorResumesImmediately verifies a backend failure skips
// the settle delay entirely: with an hour-long settle, Speak still
// returns promptly with the error and the recognizer is restored.
func TestBackendErrorResumesImmediately(t *testing.T) {
	backend := mock.New()
	rec := &recorder{}
	cfg := voice.DefaultSpeechConfig()
	cfg.SettleDelay = time.Hour
	c, err := speech.NewCoordinator(backend, rec, voice.SystemClock(), cfg)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}

	wantErr := errors.New("synthesis failed")
	backend.FailNext(wantErr)

	start := time.Now()
	ok, err := c.Speak(context.Background(), "hello")
	if ok {
		t.Error("failed Speak() ok = true, want false")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("Speak() error = %v, want %v", err, wantErr)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("error path took %v; settle delay should be skipped", elapsed)
	}

	events := rec.Events()
	if len(events) != 2 || events[1] != "resume" {
		t.Errorf("recognizer events = %v, want [pause resume]", events)
	}
}

// TestSettleDelay verifies the recognizer stays muted for the settle
// window after speech ends.
func TestSettleDelay(t *testing.T) {
	backend := mock.New()
	backend.SetDelay(0)
	rec := &recorder{}
	clock := voice.NewFakeClock(time.Unix(0, 0))
	cfg := voice.DefaultSpeechConfig()
	cfg.SettleDelay = 500 * time.Millisecond
	c, err := speech.NewCoordinator(backend, rec, clock, cfg)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if ok, err := c.Speak(context.Background(), "hello"); !ok || err != nil {
			t.Errorf("Speak() = (%v, %v), want (true, nil)", ok, err)
		}
	}()

	waitFor(t, "coordinator to block on the settle timer", func() bool {
		return clock.Waiters() == 1
	})
	for _, e := range rec.Events() {
		if e == "resume" {
			t.Fatal("recognizer resumed before the settle delay elapsed")
		}
	}

	clock.Advance(500 * time.Millisecond)
	<-done

	events := rec.Events()
	if len(events) != 2 || events[0] != "pause" || events[1] != "resume" {
		t.Errorf("recognizer events = %v, want [pause resume]", events)
	}
}

// TestContextCancellation verifies a cancelled caller context surfaces
// ctx.Err and restores the recognizer.
func TestContextCancellation(t *testing.T) {
	c, backend, rec := newTestCoordinator(t, "replace")
	backend.SetDelay(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Speak(ctx, "hello")
		done <- err
	}()
	waitFor(t, "utterance to start", c.IsSpeaking)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Speak() error = %v, want context.Canceled", err)
	}
	waitFor(t, "recognizer resume", func() bool {
		events := rec.Events()
		return len(events) > 0 && events[len(events)-1] == "resume"
	})
}

// TestUpdateSettings verifies rate patches apply to later utterances.
func TestUpdateSettings(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "replace")

	rate := 1.5
	c.UpdateSettings(voice.SettingsPatch{Rate: &rate})
	if got := c.Settings().Rate; got != 1.5 {
		t.Errorf("Settings().Rate = %v, want 1.5", got)
	}
	// Unset fields keep their values.
	if got := c.Settings().Volume; got != voice.DefaultSettings().Volume {
		t.Errorf("Settings().Volume = %v, want default", got)
	}
}

// TestParsePolicy tests policy name parsing.
func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    speech.Policy
		wantErr bool
	}{
		{"replace", speech.PolicyReplace, false},
		{"", speech.PolicyReplace, false},
		{"queue", speech.PolicyQueue, false},
		{"reject", speech.PolicyReject, false},
		{"bogus", speech.PolicyReplace, true},
	}
	for _, tt := range tests {
		got, err := speech.ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// slowCancelBackend simulates a pipeline that takes a while to unwind
// after cancellation before its Speak call returns.
type slowCancelBackend struct {
	mu     sync.Mutex
	unwind time.Duration
	spoken []string
}

func (b *slowCancelBackend) Speak(ctx context.Context, text string, _ voice.Settings) error {
	b.mu.Lock()
	b.spoken = append(b.spoken, text)
	b.mu.Unlock()
	select {
	case <-ctx.Done():
		time.Sleep(b.unwind)
		return ctx.Err()
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func (b *slowCancelBackend) Cancel()               {}
func (b *slowCancelBackend) Pause() error          { return nil }
func (b *slowCancelBackend) Resume() error         { return nil }
func (b *slowCancelBackend) Voices() []voice.Voice { return nil }

func (b *slowCancelBackend) Spoken() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.spoken...)
}

// TestReplaceSupersedesQueuedCall verifies that when a cancelled
// utterance takes time to unwind, a replacing call also supersedes
// earlier calls still queued behind it: only the newest one speaks.
func TestReplaceSupersedesQueuedCall(t *testing.T) {
	backend := &slowCancelBackend{unwind: 50 * time.Millisecond}
	rec := &recorder{}
	cfg := voice.DefaultSpeechConfig()
	cfg.Policy = "replace"
	cfg.SettleDelay = 0
	c, err := speech.NewCoordinator(backend, rec, voice.SystemClock(), cfg)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}

	results := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	speak := func(text string) {
		defer wg.Done()
		ok, err := c.Speak(context.Background(), text)
		if err != nil {
			t.Errorf("Speak(%q) error = %v", text, err)
		}
		mu.Lock()
		results[text] = ok
		mu.Unlock()
	}

	wg.Add(1)
	go speak("old")
	waitFor(t, "first utterance to start", c.IsSpeaking)

	wg.Add(1)
	go speak("stale")
	time.Sleep(10 * time.Millisecond) // cancelled utterance still unwinding
	wg.Add(1)
	go speak("newest")
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if results["old"] || results["stale"] {
		t.Errorf("superseded calls completed meaningfully: old=%v stale=%v", results["old"], results["stale"])
	}
	if !results["newest"] {
		t.Error("newest call did not complete meaningfully")
	}
	for _, text := range backend.Spoken() {
		if text == "stale" {
			t.Errorf("superseded call reached the backend: %v", backend.Spoken())
		}
	}
}

// TestStopCutsOffHandedOffWaiter verifies a Stop that lands just as a
// queued call takes its turn still suppresses that call.
func TestStopCutsOffHandedOffWaiter(t *testing.T) {
	c, backend, _ := newTestCoordinator(t, "queue")
	backend.SetDelay(20 * time.Millisecond)

	for i := 0; i < 20; i++ {
		first := make(chan struct{})
		go func() {
			_, _ = c.Speak(context.Background(), "first")
			close(first)
		}()
		waitFor(t, "first utterance to start", c.IsSpeaking)

		queued := make(chan bool, 1)
		go func() {
			ok, _ := c.Speak(context.Background(), "queued")
			queued <- ok
		}()

		// The first call returns right after releasing its turn, so
		// this Stop races the queued call's takeover.
		<-first
		c.Stop()

		if ok := <-queued; ok {
			t.Fatalf("iteration %d: queued call completed meaningfully after Stop", i)
		}
	}
}
