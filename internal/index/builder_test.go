package index

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setsearch/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func indexContents(idx *InvertedIndex) map[string][]string {
	out := make(map[string][]string, idx.TermCount())
	for _, term := range idx.Terms() {
		out[term] = idx.Lookup(term)
	}
	return out
}

func TestBuildFromFileTiny(t *testing.T) {
	idx := NewInvertedIndex()
	processed := BuildFromFile(filepath.Join("testdata", "tiny.txt"), idx, discardLogger())

	require.Equal(t, 4, processed)
	assert.Equal(t, map[string][]string{
		"eggs":   {"www.shoppinglist.com"},
		"milk":   {"www.shoppinglist.com"},
		"fish":   {"www.dr.seuss.net", "www.shoppinglist.com"},
		"bread":  {"www.shoppinglist.com"},
		"cheese": {"www.shoppinglist.com"},
		"red":    {"www.dr.seuss.net", "www.rainbow.org"},
		"green":  {"www.rainbow.org"},
		"orange": {"www.rainbow.org"},
		"yellow": {"www.rainbow.org"},
		"blue":   {"www.dr.seuss.net", "www.rainbow.org"},
		"indigo": {"www.rainbow.org"},
		"violet": {"www.rainbow.org"},
		"one":    {"www.dr.seuss.net"},
		"two":    {"www.dr.seuss.net"},
		"i'm":    {"www.bigbadwolf.com"},
		"not":    {"www.bigbadwolf.com"},
		"trying": {"www.bigbadwolf.com"},
		"to":     {"www.bigbadwolf.com"},
		"eat":    {"www.bigbadwolf.com"},
		"you":    {"www.bigbadwolf.com"},
	}, indexContents(idx))
	assert.Equal(t, 4, idx.DocCount())
}

func TestBuildFromFileInvalidSource(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	idx := NewInvertedIndex()
	processed := BuildFromFile(filepath.Join(t.TempDir(), "absdbasdbasd.txt"), idx, logger)

	assert.Equal(t, 0, processed)
	assert.Zero(t, idx.TermCount())
	assert.Contains(t, logs.String(), "invalid source")
}

func TestBuildFromFileRejectsDirectory(t *testing.T) {
	idx := NewInvertedIndex()
	assert.Equal(t, 0, BuildFromFile(t.TempDir(), idx, discardLogger()))
	assert.Zero(t, idx.TermCount())
}

func TestBuildEmptyDocumentIDIsSkipped(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings(
		"a.com", "apple banana",
		"", "orphan words here",
		"b.com", "banana cherry",
	), idx, discardLogger())

	assert.Equal(t, 2, processed)
	assert.Nil(t, idx.Lookup("orphan"))
	assert.Equal(t, []string{"a.com", "b.com"}, idx.Lookup("banana"))
}

func TestBuildWhitespaceDocumentIDIsIndexed(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings(
		" ", "orphan",
		"a.com", "apple",
		"\t ", "more orphans",
	), idx, discardLogger())

	assert.Equal(t, 3, processed)
	assert.Equal(t, []string{" "}, idx.Lookup("orphan"))
	assert.Equal(t, []string{"\t "}, idx.Lookup("orphans"))
	assert.Equal(t, 3, idx.DocCount())
}

func TestBuildMultiMegabyteContentLine(t *testing.T) {
	long := "apple " + strings.Repeat("x", 2<<20)
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings("a.com", "kiwi", "b.com", long), idx, discardLogger())

	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"a.com"}, idx.Lookup("kiwi"))
	assert.Equal(t, []string{"b.com"}, idx.Lookup("apple"))
	assert.Equal(t, []string{"b.com"}, idx.Lookup(strings.Repeat("x", 2<<20)))
}

func TestBuildDanglingTrailingIDIsNotCounted(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings(
		"a.com", "apple",
		"b.com", "banana",
		"dangling.com",
	), idx, discardLogger())

	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, idx.DocCount())
	assert.Equal(t, []string{"apple", "banana"}, idx.Terms())
}

func TestBuildTrailingNewlineDoesNotAddRecord(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings("a.com", "apple", ""), idx, discardLogger())

	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"apple"}, idx.Terms())
}

func TestBuildHandlesCRLF(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings("a.com\r", "apple pie\r"), idx, discardLogger())

	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"a.com"}, idx.Lookup("pie"))
}

func TestBuildEmptyContentCountsDocument(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings("a.com", "", "b.com", "!!! 123"), idx, discardLogger())

	assert.Equal(t, 2, processed)
	assert.Zero(t, idx.TermCount())
}

func TestBuildPreservesExistingEntries(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("apple", "old.com")
	idx.Add("kiwi", "old.com")

	processed := Build(source.FromStrings("new.com", "apple mango"), idx, discardLogger())

	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"new.com", "old.com"}, idx.Lookup("apple"))
	assert.Equal(t, []string{"old.com"}, idx.Lookup("kiwi"))
	assert.Equal(t, []string{"new.com"}, idx.Lookup("mango"))
}

func TestBuildRepeatedDocumentIDCountsEachRecord(t *testing.T) {
	idx := NewInvertedIndex()
	processed := Build(source.FromStrings("a.com", "apple", "a.com", "banana"), idx, discardLogger())

	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, idx.DocCount())
	assert.Equal(t, []string{"a.com"}, idx.Lookup("banana"))
}

type failingScanner struct {
	lines []string
	pos   int
}

func (f *failingScanner) Scan() bool {
	if f.pos >= len(f.lines) {
		return false
	}
	f.pos++
	return true
}

func (f *failingScanner) Text() string { return f.lines[f.pos-1] }

func (f *failingScanner) Err() error {
	if f.pos >= len(f.lines) {
		return errors.New("disk on fire")
	}
	return nil
}

func TestBuildReadFailureLeavesIndexUntouched(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	idx := NewInvertedIndex()
	idx.Add("kiwi", "old.com")

	processed := Build(&failingScanner{lines: []string{"a.com", "apple banana", "b.com"}}, idx, logger)

	assert.Equal(t, 0, processed)
	assert.Equal(t, []string{"kiwi"}, idx.Terms())
	assert.Contains(t, logs.String(), "disk on fire")
}

type lineTokenizer struct{}

func (lineTokenizer) Tokenize(text string) TermSet {
	return TermSet{text: {}}
}

func TestBuildWithCustomTokenizer(t *testing.T) {
	idx := NewInvertedIndex()
	processed := BuildWith(lineTokenizer{}, source.FromStrings("a.com", "Whole Line"), idx, discardLogger())

	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"a.com"}, idx.Lookup("Whole Line"))
}
