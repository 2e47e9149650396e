// Package content extracts ordered content blocks from markdown, the
// demo stand-in for a rule-based page extractor. Block positions are a
// synthetic vertical layout so viewport-relative reads work without a
// real page.
package content

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgnsrekt/hodavoice/voice"
)

const (
	lineHeight   = 20 // synthetic pixels per wrapped text line
	blockMargin  = 16 // synthetic pixels between blocks
	wrapColumns  = 80 // assumed characters per line for wrapping
	headingExtra = 8  // headings render larger
)

// Extractor turns a markdown document into a content-block snapshot
// and serves it as a voice.ContentSource.
type Extractor struct {
	mu       sync.RWMutex
	blocks   []voice.ContentBlock
	skipCode bool
}

// NewExtractor creates an extractor. When skipCode is set, code blocks
// are left out of the snapshot.
func NewExtractor(skipCode bool) *Extractor {
	return &Extractor{skipCode: skipCode}
}

// SetSource parses markdown and replaces the current snapshot.
func (e *Extractor) SetSource(markdown []byte) {
	blocks := Parse(markdown, e.skipCode)
	e.mu.Lock()
	e.blocks = blocks
	e.mu.Unlock()
}

// Blocks returns all blocks in document order.
func (e *Extractor) Blocks() []voice.ContentBlock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]voice.ContentBlock{}, e.blocks...)
}

// BlocksFrom returns the blocks at or below offset, keeping blocks up
// to tolerance pixels above it so one straddling the boundary is still
// included.
func (e *Extractor) BlocksFrom(offset, tolerance int) []voice.ContentBlock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]voice.ContentBlock, 0, len(e.blocks))
	for _, b := range e.blocks {
		if b.Position >= offset-tolerance {
			out = append(out, b)
		}
	}
	return out
}

// Parse extracts content blocks from markdown.
func Parse(markdown []byte, skipCode bool) []voice.ContentBlock {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var blocks []voice.ContentBlock
	y := 0
	add := func(b voice.ContentBlock) {
		if b.Text == "" {
			return
		}
		b.Position = y
		blocks = append(blocks, b)
		lines := len(b.Text)/wrapColumns + 1
		height := lines * lineHeight
		if b.IsHeading {
			height += headingExtra
		}
		y += height + blockMargin
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			add(voice.ContentBlock{
				Text:         plainText(n, markdown),
				Type:         voice.BlockHeading,
				IsHeading:    true,
				HeadingLevel: n.Level,
			})
		case *ast.Paragraph:
			add(voice.ContentBlock{
				Text: plainText(n, markdown),
				Type: voice.BlockParagraph,
			})
		case *ast.List:
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				add(voice.ContentBlock{
					Text: plainText(item, markdown),
					Type: voice.BlockListItem,
				})
			}
		case *ast.Blockquote:
			add(voice.ContentBlock{
				Text: plainText(n, markdown),
				Type: voice.BlockQuote,
			})
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if skipCode {
				continue
			}
			add(voice.ContentBlock{
				Text: linesText(node, markdown),
				Type: voice.BlockCode,
			})
		}
	}
	return blocks
}

// plainText collects the rendered text of a node, joining soft line
// breaks with spaces.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.CodeSpan:
			// children are Text nodes; nothing extra to do
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// linesText collects the raw lines of a code block.
func linesText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}
