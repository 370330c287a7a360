package flexsearch

import (
	"strings"
	"unicode"
)

// Highlighter renders a snippet of fragmentSize runes around a match inside
// text, wrapping the matched span in "<em>"/"</em>".
//
// Highlight scans text directly for the first occurrence of any of terms.
// HighlightAtWord instead anchors on a word index recorded by the retained
// positional skip list (index.go::TermPositionsInDoc) — callers that have
// exact occurrence data get a snippet centered on the actual matched
// occurrence rather than just the first textual substring.
type Highlighter interface {
	Highlight(text string, terms []string, fragmentSize int) (string, bool)
	HighlightAtWord(text string, wordIndex int, fragmentSize int) (string, bool)
}

// SnippetHighlighter is the default Highlighter.
type SnippetHighlighter struct{}

func NewSnippetHighlighter() *SnippetHighlighter { return &SnippetHighlighter{} }

// Highlight returns false when none of terms occur in text.
func (SnippetHighlighter) Highlight(text string, terms []string, fragmentSize int) (string, bool) {
	if fragmentSize <= 0 {
		fragmentSize = 120
	}
	lower := strings.ToLower(text)
	matchStart, matchEnd := -1, -1
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if i := strings.Index(lower, t); i >= 0 && (matchStart == -1 || i < matchStart) {
			matchStart, matchEnd = i, i+len(t)
		}
	}
	if matchStart == -1 {
		return "", false
	}

	runes := []rune(text)
	lowerStart := byteToRuneIndex(text, matchStart)
	lowerEnd := byteToRuneIndex(text, matchEnd)

	return buildSnippet(runes, lowerStart, lowerEnd, fragmentSize), true
}

// HighlightAtWord anchors the snippet on the wordIndex-th contiguous run of
// letters/digits in text (the same word-boundary rule as
// charset.go::defaultTokenize), rather than scanning for a literal term
// match. wordIndex is a position recorded in the encoded token sequence
// (index.go::TermPositionsInDoc), which has already had stopwords dropped
// and stemming applied, so it does not line up exactly with the raw text's
// word count when those filters removed earlier words; this is a
// best-effort approximation, not an exact back-reference.
func (SnippetHighlighter) HighlightAtWord(text string, wordIndex int, fragmentSize int) (string, bool) {
	if fragmentSize <= 0 {
		fragmentSize = 120
	}
	if wordIndex < 0 {
		return "", false
	}
	start, end, ok := nthWordSpan(text, wordIndex)
	if !ok {
		return "", false
	}
	runes := []rune(text)
	return buildSnippet(runes, start, end, fragmentSize), true
}

// buildSnippet wraps runes[matchStart:matchEnd] in "<em>"/"</em>" and pads
// it out to fragmentSize runes, marking truncation with an ellipsis.
func buildSnippet(runes []rune, matchStart, matchEnd, fragmentSize int) string {
	half := (fragmentSize - (matchEnd - matchStart)) / 2
	if half < 0 {
		half = 0
	}
	start := matchStart - half
	if start < 0 {
		start = 0
	}
	end := start + fragmentSize
	if end > len(runes) {
		end = len(runes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	b.WriteString(string(runes[start:matchStart]))
	b.WriteString("<em>")
	b.WriteString(string(runes[matchStart:matchEnd]))
	b.WriteString("</em>")
	b.WriteString(string(runes[matchEnd:end]))
	if end < len(runes) {
		b.WriteString("…")
	}
	return b.String()
}

func byteToRuneIndex(s string, byteIdx int) int {
	count := 0
	for i := range s {
		if i >= byteIdx {
			return count
		}
		count++
	}
	return count
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// nthWordSpan returns the [start, end) rune range of the n-th contiguous
// run of word runes in text (0-indexed), or ok=false if text has fewer than
// n+1 words.
func nthWordSpan(text string, n int) (start, end int, ok bool) {
	runes := []rune(text)
	word := -1
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		wordStart := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		word++
		if word == n {
			return wordStart, i, true
		}
	}
	return 0, 0, false
}
