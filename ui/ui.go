// Package ui is the demo shell: a Bubble Tea program that renders a
// markdown page, takes typed text as a stand-in for recognized speech,
// and routes it through the wake machine into reading commands.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/content"
	"github.com/dgnsrekt/hodavoice/voice/reading"
	"github.com/dgnsrekt/hodavoice/voice/speech"
	"github.com/dgnsrekt/hodavoice/voice/wake"
)

// Config carries everything the shell needs. The voice components are
// constructed by the caller so the shell stays a thin presentation
// layer over them.
type Config struct {
	DocumentPath string
	Document     string

	Voice   voice.Config
	Session *reading.Session
	Speaker *speech.Coordinator
	Machine *wake.Machine
	Source  *content.Extractor
	Visual  *Visual
	Logger  *log.Logger
}

type tickMsg time.Time

type actionResultMsg struct {
	action Action
	result voice.Result
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	awakeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	asleepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	readingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	speakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("222")).Italic(true)
)

type model struct {
	cfg        Config
	dispatcher *Dispatcher
	logger     *log.Logger

	viewport viewport.Model
	input    textinput.Model
	ready    bool
	width    int
	height   int

	readingState string
	blockIndex   int
	blockTotal   int
	highlighted  *voice.ContentBlock

	lastHeard  string
	lastAction string
	lastErr    string

	// offset mirrors the viewport position in block coordinates so the
	// dispatcher can read it from other goroutines.
	offset atomic.Int64
}

// NewProgram builds the Bubble Tea program and wires the voice
// components' callbacks into it.
func NewProgram(cfg Config) *tea.Program {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("say something (try %q)", cfg.Voice.Wake.Phrase+" read page")
	ti.Prompt = "🎤 "
	ti.Focus()

	m := &model{
		cfg:          cfg,
		logger:       cfg.Logger,
		input:        ti,
		readingState: "idle",
	}
	m.dispatcher = NewDispatcher(cfg.Session, cfg.Speaker, func() int {
		return int(m.offset.Load())
	}, cfg.Machine.Sleep)

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Voice components run on their own goroutines; everything they
	// report enters the UI as a message.
	cfg.Machine.OnWake(func() { p.Send(voice.WakeMsg{At: time.Now()}) })
	cfg.Machine.OnSleep(func() { p.Send(voice.SleepMsg{}) })
	cfg.Session.SetNotify(func(msg any) { p.Send(msg) })
	if cfg.Visual != nil {
		cfg.Visual.Attach(p)
	}
	return p
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chrome := 4 // title, status, hint, input
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
		m.renderDocument()
		m.syncOffset()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cfg.Session.Reset()
			m.cfg.Speaker.Stop()
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			return m, m.hear(text)
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			m.syncOffset()
			return m, cmd
		}

	case tickMsg:
		cmds = append(cmds, tick())

	case actionResultMsg:
		if msg.result.OK {
			m.lastAction = msg.action.String()
			m.lastErr = ""
		} else {
			m.lastAction = msg.action.String()
			m.lastErr = msg.result.Reason
		}

	case voice.WakeMsg:
		m.lastErr = ""

	case voice.SleepMsg:
		// status bar reads wake state live; nothing to store

	case voice.CommandMsg:
		// classification already handled in hear

	case voice.ReadingStateMsg:
		m.readingState = msg.State
		m.blockIndex = msg.Index
		m.blockTotal = msg.Total

	case voice.BlockChangedMsg:
		m.blockIndex = msg.Index
		m.blockTotal = msg.Total

	case voice.SpeechErrorMsg:
		m.lastErr = msg.Err.Error()

	case scrollToMsg:
		m.scrollToBlock(msg.block)
		m.syncOffset()

	case highlightMsg:
		block := msg.block
		m.highlighted = &block

	case clearHighlightsMsg:
		m.highlighted = nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// hear feeds recognized text through the wake machine and dispatches
// any resulting command off the UI goroutine.
func (m *model) hear(text string) tea.Cmd {
	m.lastHeard = text
	c := m.cfg.Machine.Process(text)
	switch c.Kind {
	case wake.KindWake:
		m.lastAction = "woke up"
		m.lastErr = ""
		return nil
	case wake.KindWakeAndCommand, wake.KindCommand, wake.KindDirectCommand:
		d := m.dispatcher
		command := c.Command
		return func() tea.Msg {
			action, result := d.Dispatch(command)
			return actionResultMsg{action: action, result: result}
		}
	default:
		m.lastAction = "ignored"
		m.lastErr = c.Reason
		return nil
	}
}

// renderDocument re-renders the markdown at the current width.
func (m *model) renderDocument() {
	if !m.ready {
		return
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Error("renderer init failed", "error", err)
		m.viewport.SetContent(m.cfg.Document)
		return
	}
	out, err := r.Render(m.cfg.Document)
	if err != nil {
		m.logger.Error("render failed", "error", err)
		out = m.cfg.Document
	}
	m.viewport.SetContent(out)
}

// scrollToBlock maps a block's synthetic position onto the rendered
// document proportionally and scrolls there.
func (m *model) scrollToBlock(block voice.ContentBlock) {
	if !m.ready {
		return
	}
	blocks := m.cfg.Source.Blocks()
	if len(blocks) == 0 {
		return
	}
	span := blocks[len(blocks)-1].Position + 1
	lines := m.viewport.TotalLineCount()
	m.viewport.SetYOffset(block.Position * lines / span)
}

// syncOffset publishes the viewport position in the block coordinate
// space, for read-from-here.
func (m *model) syncOffset() {
	if !m.ready {
		return
	}
	blocks := m.cfg.Source.Blocks()
	lines := m.viewport.TotalLineCount()
	if len(blocks) == 0 || lines == 0 {
		m.offset.Store(0)
		return
	}
	span := blocks[len(blocks)-1].Position + 1
	m.offset.Store(int64(m.viewport.YOffset * span / lines))
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}

	name := m.cfg.DocumentPath
	if name == "" {
		name = "(stdin)"
	} else {
		name = filepath.Base(name)
	}
	title := titleStyle.Render("hodavoice") + subtleStyle.Render(
		fmt.Sprintf("  %s · %s", name, humanize.Bytes(uint64(len(m.cfg.Document)))),
	)

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(m.input.View())
	return b.String()
}

// statusLine builds the single status row: wake state, reading state,
// speaking rate, and the last command outcome.
func (m *model) statusLine() string {
	var parts []string

	if m.cfg.Machine.IsAwake() {
		if remaining, ok := m.cfg.Machine.TimeRemaining(); ok {
			parts = append(parts, awakeStyle.Render(fmt.Sprintf("● awake %ds", int(remaining.Seconds())+1)))
		} else {
			parts = append(parts, awakeStyle.Render("● awake"))
		}
	} else {
		parts = append(parts, asleepStyle.Render("○ asleep"))
	}

	state := m.readingState
	if state == "reading" || state == "paused" {
		state = fmt.Sprintf("%s %d/%d", state, m.blockIndex+1, m.blockTotal)
	}
	parts = append(parts, readingStyle.Render(state))

	parts = append(parts, subtleStyle.Render(fmt.Sprintf("rate %.2fx", m.cfg.Speaker.Settings().Rate)))

	if m.highlighted != nil {
		snippet := m.highlighted.Text
		if len(snippet) > 32 {
			snippet = snippet[:32] + "…"
		}
		parts = append(parts, speakStyle.Render("▶ "+snippet))
	}

	if m.lastHeard != "" {
		parts = append(parts, subtleStyle.Render("heard: "+m.lastHeard))
	}
	if m.lastAction != "" {
		parts = append(parts, subtleStyle.Render("→ "+m.lastAction))
	}
	if m.lastErr != "" {
		parts = append(parts, errorStyle.Render(m.lastErr))
	}

	line := strings.Join(parts, subtleStyle.Render(" │ "))
	if m.width > 0 {
		line = truncate.StringWithTail(line, uint(m.width), "…")
	}
	return line
}
