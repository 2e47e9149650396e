package content_test

import (
	"testing"

	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/content"
)

const sampleDoc = `# Getting Started

This is the first paragraph. It spans
two source lines.

- first item
- second item

> a quoted line

` + "```go\nfunc main() {}\n```" + `

Closing paragraph.
`

// TestParse verifies block extraction order, types, and text.
func TestParse(t *testing.T) {
	blocks := content.Parse([]byte(sampleDoc), false)

	want := []struct {
		typ  voice.BlockType
		text string
	}{
		{voice.BlockHeading, "Getting Started"},
		{voice.BlockParagraph, "This is the first paragraph. It spans two source lines."},
		{voice.BlockListItem, "first item"},
		{voice.BlockListItem, "second item"},
		{voice.BlockQuote, "a quoted line"},
		{voice.BlockCode, "func main() {}"},
		{voice.BlockParagraph, "Closing paragraph."},
	}

	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(want), blocks)
	}
	for i, w := range want {
		if blocks[i].Type != w.typ {
			t.Errorf("blocks[%d].Type = %v, want %v", i, blocks[i].Type, w.typ)
		}
		if blocks[i].Text != w.text {
			t.Errorf("blocks[%d].Text = %q, want %q", i, blocks[i].Text, w.text)
		}
	}

	if !blocks[0].IsHeading || blocks[0].HeadingLevel != 1 {
		t.Errorf("heading metadata = (%v, %d), want (true, 1)", blocks[0].IsHeading, blocks[0].HeadingLevel)
	}
}

// TestParsePositionsIncrease verifies the synthetic layout is strictly
// ordered.
func TestParsePositionsIncrease(t *testing.T) {
	blocks := content.Parse([]byte(sampleDoc), false)
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Position <= blocks[i-1].Position {
			t.Fatalf("positions not increasing at %d: %d then %d", i, blocks[i-1].Position, blocks[i].Position)
		}
	}
}

// TestParseSkipCode verifies code blocks can be excluded.
func TestParseSkipCode(t *testing.T) {
	blocks := content.Parse([]byte(sampleDoc), true)
	for _, b := range blocks {
		if b.Type == voice.BlockCode {
			t.Fatalf("code block present despite skipCode: %+v", b)
		}
	}
}

// TestBlocksFrom verifies viewport filtering with tolerance.
func TestBlocksFrom(t *testing.T) {
	e := content.NewExtractor(false)
	e.SetSource([]byte(sampleDoc))

	all := e.Blocks()
	if len(all) == 0 {
		t.Fatal("no blocks extracted")
	}

	// From the very top everything is visible.
	if got := e.BlocksFrom(0, 0); len(got) != len(all) {
		t.Errorf("BlocksFrom(0, 0) = %d blocks, want %d", len(got), len(all))
	}

	// Just past the second block: without tolerance it is excluded,
	// with a tolerance covering the overshoot it is back in.
	offset := all[1].Position + 10
	got := e.BlocksFrom(offset, 0)
	if len(got) != len(all)-2 {
		t.Errorf("BlocksFrom(%d, 0) = %d blocks, want %d", offset, len(got), len(all)-2)
	}
	got = e.BlocksFrom(offset, 10)
	if len(got) != len(all)-1 {
		t.Errorf("BlocksFrom(%d, 10) = %d blocks, want %d", offset, len(got), len(all)-1)
	}
}

// TestSetSourceReplacesSnapshot verifies re-parsing swaps the snapshot
// wholesale.
func TestSetSourceReplacesSnapshot(t *testing.T) {
	e := content.NewExtractor(false)
	e.SetSource([]byte("first paragraph"))
	if got := len(e.Blocks()); got != 1 {
		t.Fatalf("got %d blocks, want 1", got)
	}

	e.SetSource([]byte("one\n\ntwo\n\nthree"))
	if got := len(e.Blocks()); got != 3 {
		t.Errorf("got %d blocks after replace, want 3", got)
	}
}

// TestParseEmpty verifies empty input yields no blocks.
func TestParseEmpty(t *testing.T) {
	if blocks := content.Parse(nil, false); len(blocks) != 0 {
		t.Errorf("Parse(nil) = %d blocks, want 0", len(blocks))
	}
}
