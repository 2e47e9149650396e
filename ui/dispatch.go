package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/reading"
	"github.com/dgnsrekt/hodavoice/voice/speech"
)

// Action identifies a voice command the shell can carry out.
type Action int

const (
	// ActionNone means no command matched.
	ActionNone Action = iota
	// ActionReadPage starts reading from the top of the page.
	ActionReadPage
	// ActionReadFromHere starts reading from the current scroll offset.
	ActionReadFromHere
	// ActionPause pauses the reading session.
	ActionPause
	// ActionResume resumes a paused session.
	ActionResume
	// ActionStop stops the reading session.
	ActionStop
	// ActionNext moves to the next block.
	ActionNext
	// ActionPrevious moves to the previous block.
	ActionPrevious
	// ActionFaster bumps the speaking rate up.
	ActionFaster
	// ActionSlower bumps the speaking rate down.
	ActionSlower
	// ActionQuiet cuts the current utterance without touching the
	// session.
	ActionQuiet
	// ActionSleep closes the wake activation window.
	ActionSleep
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionReadPage:
		return "read page"
	case ActionReadFromHere:
		return "read from here"
	case ActionPause:
		return "pause"
	case ActionResume:
		return "resume"
	case ActionStop:
		return "stop"
	case ActionNext:
		return "next paragraph"
	case ActionPrevious:
		return "previous paragraph"
	case ActionFaster:
		return "faster"
	case ActionSlower:
		return "slower"
	case ActionQuiet:
		return "quiet"
	case ActionSleep:
		return "sleep"
	default:
		return "none"
	}
}

// binding maps a spoken phrase to an action. Several phrasings map to
// the same action so recognition doesn't have to be exact.
type binding struct {
	phrase string
	action Action
}

var bindings = []binding{
	{"read page", ActionReadPage},
	{"read this page", ActionReadPage},
	{"read the page", ActionReadPage},
	{"start reading", ActionReadPage},
	{"read from here", ActionReadFromHere},
	{"read from there", ActionReadFromHere},
	{"pause", ActionPause},
	{"pause reading", ActionPause},
	{"resume", ActionResume},
	{"resume reading", ActionResume},
	{"continue", ActionResume},
	{"continue reading", ActionResume},
	{"stop", ActionStop},
	{"stop reading", ActionStop},
	{"next", ActionNext},
	{"next paragraph", ActionNext},
	{"skip", ActionNext},
	{"previous", ActionPrevious},
	{"previous paragraph", ActionPrevious},
	{"go back", ActionPrevious},
	{"faster", ActionFaster},
	{"speak faster", ActionFaster},
	{"speed up", ActionFaster},
	{"slower", ActionSlower},
	{"speak slower", ActionSlower},
	{"slow down", ActionSlower},
	{"quiet", ActionQuiet},
	{"be quiet", ActionQuiet},
	{"stop talking", ActionQuiet},
	{"sleep", ActionSleep},
	{"go to sleep", ActionSleep},
	{"stop listening", ActionSleep},
}

const (
	rateStep = 0.25
	rateMin  = 0.25
	rateMax  = 4.0
)

// Dispatcher maps recognized command text to session and coordinator
// operations. Matching is exact first, then fuzzy, so near-misses from
// a recognizer still land on the intended command.
type Dispatcher struct {
	session *reading.Session
	speaker *speech.Coordinator
	offset  func() int
	sleep   func()
	phrases []string
}

// NewDispatcher creates a dispatcher. offset reports the current
// viewport scroll position for read-from-here; sleep closes the wake
// window and may be nil.
func NewDispatcher(session *reading.Session, speaker *speech.Coordinator, offset func() int, sleep func()) *Dispatcher {
	phrases := make([]string, len(bindings))
	for i, b := range bindings {
		phrases[i] = b.phrase
	}
	return &Dispatcher{
		session: session,
		speaker: speaker,
		offset:  offset,
		sleep:   sleep,
		phrases: phrases,
	}
}

// Match resolves command text to an action without executing it.
func (d *Dispatcher) Match(command string) Action {
	command = strings.ToLower(strings.TrimSpace(command))
	if command == "" {
		return ActionNone
	}
	for _, b := range bindings {
		if b.phrase == command {
			return b.action
		}
	}
	matches := fuzzy.Find(command, d.phrases)
	if len(matches) == 0 || matches[0].Score <= 0 {
		return ActionNone
	}
	return bindings[matches[0].Index].action
}

// Dispatch resolves and executes a command, returning the matched
// action and the operation result.
func (d *Dispatcher) Dispatch(command string) (Action, voice.Result) {
	action := d.Match(command)
	switch action {
	case ActionReadPage:
		return action, d.session.ReadPage()
	case ActionReadFromHere:
		return action, d.session.ReadFromHere(d.offset())
	case ActionPause:
		return action, d.session.PauseReading()
	case ActionResume:
		return action, d.session.ResumeReading()
	case ActionStop:
		return action, d.session.StopReading()
	case ActionNext:
		return action, d.session.NextParagraph()
	case ActionPrevious:
		return action, d.session.PreviousParagraph()
	case ActionFaster:
		return action, d.adjustRate(rateStep)
	case ActionSlower:
		return action, d.adjustRate(-rateStep)
	case ActionQuiet:
		d.speaker.Stop()
		return action, voice.Succeed()
	case ActionSleep:
		if d.sleep != nil {
			d.sleep()
		}
		return action, voice.Succeed()
	default:
		return ActionNone, voice.Fail("unknown-command")
	}
}

func (d *Dispatcher) adjustRate(delta float64) voice.Result {
	rate := d.speaker.Settings().Rate + delta
	if rate < rateMin {
		rate = rateMin
	}
	if rate > rateMax {
		rate = rateMax
	}
	d.speaker.UpdateSettings(voice.SettingsPatch{Rate: &rate})
	return voice.Succeed()
}
