package wake

import "testing"

// TestMatchPhrase tests wake phrase detection and command extraction.
func TestMatchPhrase(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		phrase    string
		remainder string
		found     bool
	}{
		{
			name:   "exact phrase",
			text:   "hoda",
			phrase: "hoda",
			found:  true,
		},
		{
			name:      "phrase prefix with command",
			text:      "hoda read page",
			phrase:    "hoda",
			remainder: "read page",
			found:     true,
		},
		{
			name:      "phrase prefix with scroll command",
			text:      "hoda scroll down",
			phrase:    "hoda",
			remainder: "scroll down",
			found:     true,
		},
		{
			name:   "standalone word at the end",
			text:   "hey hoda",
			phrase: "hoda",
			found:  true,
		},
		{
			name:      "standalone word mid-sentence",
			text:      "hey hoda read this",
			phrase:    "hoda",
			remainder: "read this",
			found:     true,
		},
		{
			name:   "substring of a longer word",
			text:   "hodaville is nice",
			phrase: "hoda",
			found:  false,
		},
		{
			name:   "substring at word end",
			text:   "visit rhoda today",
			phrase: "hoda",
			found:  false,
		},
		{
			name:   "no phrase at all",
			text:   "read page",
			phrase: "hoda",
			found:  false,
		},
		{
			name:   "empty text",
			text:   "",
			phrase: "hoda",
			found:  false,
		},
		{
			name:   "empty phrase never matches",
			text:   "hoda read page",
			phrase: "",
			found:  false,
		},
		{
			name:      "multi-word phrase",
			text:      "hey computer stop",
			phrase:    "hey computer",
			remainder: "stop",
			found:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remainder, found := MatchPhrase(tt.text, tt.phrase)
			if found != tt.found {
				t.Fatalf("MatchPhrase(%q, %q) found = %v, want %v", tt.text, tt.phrase, found, tt.found)
			}
			if remainder != tt.remainder {
				t.Errorf("MatchPhrase(%q, %q) remainder = %q, want %q", tt.text, tt.phrase, remainder, tt.remainder)
			}
		})
	}
}

// TestFold tests case folding for matching.
func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HODA", "hoda"},
		{"Hoda Read Page", "hoda read page"},
		{"hoda", "hoda"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestMatchPhraseFoldedInput verifies matching works on folded input
// regardless of the original casing.
func TestMatchPhraseFoldedInput(t *testing.T) {
	remainder, found := MatchPhrase(Fold("HODA Read Page"), Fold("Hoda"))
	if !found {
		t.Fatal("expected folded phrase to match")
	}
	if remainder != "read page" {
		t.Errorf("remainder = %q, want %q", remainder, "read page")
	}
}
