package index

import (
	"log/slog"
	"strings"

	"setsearch/internal/source"
)

// LineScanner yields the lines of a document source one at a time.
// *bufio.Scanner and *source.Lines both satisfy it.
type LineScanner interface {
	Scan() bool
	Text() string
	Err() error
}

// Build reads (document id, content) line pairs from src and adds every
// gathered term to idx. It returns the number of documents processed.
//
// An empty id line skips its content line without counting it. A trailing id
// with no content line contributes nothing. Entries already present in idx are
// kept. Any other id, including one made of whitespace, is used verbatim.
// If src fails mid-stream, nothing is added and 0 is returned.
func Build(src LineScanner, idx *InvertedIndex, logger *slog.Logger) int {
	return BuildWith(StandardTokenizer{}, src, idx, logger)
}

// BuildWith is Build with a caller-supplied tokenizer.
func BuildWith(tokenizer Tokenizer, src LineScanner, idx *InvertedIndex, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	staged := NewInvertedIndex()
	processed := 0
	for src.Scan() {
		docID := trimLine(src.Text())
		if !src.Scan() {
			if docID != "" {
				logger.Debug("dangling document id ignored", "doc_id", docID)
			}
			break
		}
		content := trimLine(src.Text())

		blank := docID == ""
		if !blank {
			processed++
		}

		terms := tokenizer.Tokenize(content)
		if blank {
			continue
		}
		for term := range terms {
			staged.Add(term, docID)
		}
	}

	if err := src.Err(); err != nil {
		logger.Error("read source", "error", err, "documents_read", processed)
		return 0
	}

	idx.merge(staged)
	return processed
}

// BuildFromFile opens path and builds idx from it. An unreadable source is
// reported through logger and yields 0 with idx untouched.
func BuildFromFile(path string, idx *InvertedIndex, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := source.Open(path)
	if err != nil {
		logger.Error("invalid source", "path", path, "error", err)
		return 0
	}
	defer file.Close()

	return Build(file.Lines(), idx, logger)
}

func trimLine(line string) string {
	return strings.TrimSuffix(line, "\r")
}
