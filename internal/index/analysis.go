package index

import (
	"sort"
	"strings"
)

// TermSet is the set of distinct normalized terms found in a block of text.
type TermSet map[string]struct{}

// Sorted returns the terms in lexical order.
func (s TermSet) Sorted() []string {
	terms := make([]string, 0, len(s))
	for term := range s {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Tokenizer exposes the minimal interface required by the index builder.
type Tokenizer interface {
	Tokenize(text string) TermSet
}

// StandardTokenizer splits on ASCII whitespace and cleans every piece with CleanToken.
type StandardTokenizer struct{}

// Tokenize implements Tokenizer.
func (StandardTokenizer) Tokenize(text string) TermSet {
	return GatherTokens(text)
}

// CleanToken normalizes a raw whitespace-delimited token into an indexable term.
// Tokens without any ASCII letter yield "". Leading and trailing ASCII punctuation
// is stripped, interior punctuation is kept, and letters are lowercased.
func CleanToken(raw string) string {
	if !hasLetter(raw) {
		return ""
	}

	start := 0
	for start < len(raw) && isPunct(raw[start]) {
		start++
	}
	end := len(raw)
	for end > start && isPunct(raw[end-1]) {
		end--
	}
	if start == end {
		return ""
	}

	return asciiLower(raw[start:end])
}

// GatherTokens returns the set of cleaned terms in text. Empty and
// all-punctuation input produces an empty set.
func GatherTokens(text string) TermSet {
	terms := make(TermSet)
	for _, word := range strings.FieldsFunc(text, isSpaceRune) {
		if term := CleanToken(word); term != "" {
			terms[term] = struct{}{}
		}
	}
	return terms
}

func hasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if isLetter(s[i]) {
			return true
		}
	}
	return false
}

func asciiLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// isPunct matches the C locale punctuation class: printable, not alphanumeric, not space.
func isPunct(c byte) bool {
	return c > ' ' && c < 0x7f && !isLetter(c) && !isDigit(c)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isSpaceRune(r rune) bool {
	return r < 0x80 && isSpace(byte(r))
}
