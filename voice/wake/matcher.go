// Package wake implements wake-phrase detection and the asleep/awake
// state machine that gates command recognition.
package wake

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Fold case-folds text for matching. All classification works on
// folded input.
func Fold(text string) string {
	return folder.String(text)
}

// MatchPhrase reports whether the wake phrase occurs in text as a
// whole match, a phrase+space prefix, or a standalone word elsewhere.
// A phrase that is only a substring of a longer word does not match.
// When it matches, the text after the phrase is returned as the
// command remainder (empty when there is none). Both arguments are
// expected to be case-folded already.
func MatchPhrase(text, phrase string) (remainder string, ok bool) {
	text = strings.TrimSpace(text)
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", false
	}

	if text == phrase {
		return "", true
	}
	if rest, found := strings.CutPrefix(text, phrase+" "); found {
		return strings.TrimSpace(rest), true
	}

	// Standalone word elsewhere in the text.
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return "", false
		}
		at := start + i
		end := at + len(phrase)
		if wordBoundaryBefore(text, at) && wordBoundaryAfter(text, end) {
			return strings.TrimSpace(text[end:]), true
		}
		start = at + 1
	}
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r := []rune(text[:i])
	return !isWordRune(r[len(r)-1])
}

func wordBoundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r := []rune(text[i:])
	return !isWordRune(r[0])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
