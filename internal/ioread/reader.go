package ioread

import "bytes"

// ReadResult holds a file's full content and a cleanup function that
// releases whatever backs it — an mmap region or a pooled buffer.
type ReadResult struct {
	Data   []byte
	Closer func() error
}

// noopCloser is a package-level no-op closer to avoid allocating a func literal per file.
func noopCloser() error { return nil }

// Reader reads a file's entire content for the content predicate's
// line-by-line scan (spec.md §4.3 step 6). Both the plain content match
// and --with-line-number reporting read the same Data and split it into
// lines via Lines, so a file is only opened and read once per visit.
type Reader interface {
	Read(path string) (ReadResult, error)
}

// Lines splits Data on line boundaries, dropping the single trailing
// empty element a final newline produces so line numbers match what a
// text editor would show.
func (r ReadResult) Lines() [][]byte {
	lines := bytes.Split(r.Data, []byte{'\n'})
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	return lines
}
