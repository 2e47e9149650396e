package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/hodavoice/voice"
)

type scrollToMsg struct {
	block voice.ContentBlock
}

type highlightMsg struct {
	block voice.ContentBlock
}

type clearHighlightsMsg struct{}

// Visual forwards session focus updates into the Bubble Tea program as
// messages. It satisfies voice.Visual and is safe to call before the
// program is attached; updates sent that early are dropped.
type Visual struct {
	mu sync.Mutex
	p  *tea.Program
}

// NewVisual creates an unattached visual adapter.
func NewVisual() *Visual {
	return &Visual{}
}

// Attach connects the adapter to a running program.
func (v *Visual) Attach(p *tea.Program) {
	v.mu.Lock()
	v.p = p
	v.mu.Unlock()
}

// ScrollTo asks the viewport to bring a block into view.
func (v *Visual) ScrollTo(block voice.ContentBlock) {
	v.send(scrollToMsg{block: block})
}

// Highlight marks a block as the one being spoken.
func (v *Visual) Highlight(block voice.ContentBlock) {
	v.send(highlightMsg{block: block})
}

// ClearHighlights removes the spoken-block marker.
func (v *Visual) ClearHighlights() {
	v.send(clearHighlightsMsg{})
}

func (v *Visual) send(msg tea.Msg) {
	v.mu.Lock()
	p := v.p
	v.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
