// Package charsource implements the file-like half of the core's input
// indirection. A VM reads from one of two kinds of source: a file-like
// byte stream, or an in-memory string with a cursor. The string kind
// needs no wrapper type, being just a byte slice plus a cursor that the
// VM already keeps as ordinary cells (SIN/SIDX/SLEN), so only the
// file-backed variant lives here.
package charsource

import (
	"bufio"
	"io"
)

// File adapts an io.Reader into the single-byte-at-a-time pull
// interface get_char() needs, buffering reads the way a line-oriented
// terminal source would.
type File struct {
	r      *bufio.Reader
	closer io.Closer
	name   string
}

// NewFile wraps r, recording name for diagnostics.
func NewFile(r io.Reader, name string) *File {
	f := &File{r: bufio.NewReader(r), name: name}
	f.closer, _ = r.(io.Closer)
	return f
}

// Name identifies the underlying stream for diagnostic messages.
func (f *File) Name() string { return f.name }

// ReadByte returns the next input byte, or io.EOF when exhausted.
func (f *File) ReadByte() (byte, error) { return f.r.ReadByte() }

// Close releases the underlying reader if it is closeable.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
