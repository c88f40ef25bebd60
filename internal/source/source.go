// Package source provides line-oriented access to document sources.
//
// A document source is a sequence of text lines grouped in pairs: a document
// id line followed by a content line.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrUnreadable is returned when a document source cannot be opened.
var ErrUnreadable = errors.New("source unreadable")

// File is an opened document source on disk.
type File struct {
	path string
	file *os.File
}

// Open opens the document source at path for reading.
func Open(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnreadable)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	return &File{path: path, file: file}, nil
}

// Path returns the path the source was opened from.
func (f *File) Path() string {
	return f.path
}

// Lines returns a scanner over the file's lines.
func (f *File) Lines() *Lines {
	return FromReader(f.file)
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	return f.file.Close()
}

// Lines iterates over the lines of a source without their trailing newline.
// Lines may be of any length.
type Lines struct {
	reader *bufio.Reader
	line   string
	err    error
	done   bool
}

// FromReader wraps r as a line sequence.
func FromReader(r io.Reader) *Lines {
	return &Lines{reader: bufio.NewReader(r)}
}

// FromStrings builds an in-memory line sequence, one element per line.
func FromStrings(lines ...string) *Lines {
	return FromReader(strings.NewReader(strings.Join(lines, "\n")))
}

// Scan advances to the next line, reporting false at the end of input or on
// error. A final line without a newline is still returned.
func (l *Lines) Scan() bool {
	if l.done {
		return false
	}

	line, err := l.reader.ReadString('\n')
	if err != nil {
		l.done = true
		if !errors.Is(err, io.EOF) {
			l.err = err
			return false
		}
		if line == "" {
			return false
		}
	}

	line = strings.TrimSuffix(line, "\n")
	l.line = strings.TrimSuffix(line, "\r")
	return true
}

// Text returns the current line.
func (l *Lines) Text() string {
	return l.line
}

// Err returns the first non-EOF error encountered.
func (l *Lines) Err() error {
	return l.err
}
