// Package sink implements the mutex-serialized output writer described in
// spec.md §4.5: text, JSON, CSV, and long-listing record formats, safe for
// concurrent use by every worker in the task pool.
package sink

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// EntryType mirrors config.TypeMask's bit values without importing the
// config package (sink must stay a leaf package).
type EntryType int

const (
	TypeFile EntryType = 1 << iota
	TypeDir
	TypeLink
)

func (t EntryType) Char() byte {
	switch t {
	case TypeDir:
		return 'd'
	case TypeLink:
		return 'l'
	default:
		return 'f'
	}
}

// Record is one matching entry, as handed to a Sink by the match handler.
type Record struct {
	Path        string
	Type        EntryType
	Size        int64
	Mtime       int64 // unix seconds
	Mode        uint32
	NLink       uint64
	UID, GID    uint32
	Executable  bool // user-execute bit set on a regular file
}

// LineMatch is one content-match line, emitted directly when
// --with-line-number is set (spec.md §4.3 step 6).
type LineMatch struct {
	Path string
	Line int
	Text string
}

// Sink is a thread-safe serializer for search output. Every method may be
// called concurrently by any number of workers; the implementation must
// hold its lock across record assembly as well as the write itself so that
// partial records never interleave (spec.md §4.5).
type Sink interface {
	// WriteRecord emits one matching entry.
	WriteRecord(r Record) error
	// WriteLineMatch emits one content-match line (line-number mode).
	WriteLineMatch(m LineMatch) error
	// Open is called once before the walk starts (JSON '[' / CSV header).
	Open() error
	// Close is called once after the walk completes (JSON ']').
	Close() error
}

// Format selects the wire format of a Sink.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatCSV
	FormatLong
)

// New constructs a Sink writing to w in the given format. useColor is
// ignored for every format but text, and is force-disabled by the caller
// whenever w is not a terminal or output is being redirected to a file
// (spec.md §6 "Output-to-TTY detection disables color automatically").
func New(w io.Writer, format Format, useColor bool) Sink {
	bw := bufio.NewWriter(w)
	base := &mutexSink{w: bw}
	switch format {
	case FormatJSON:
		return &jsonSink{mutexSink: base}
	case FormatCSV:
		return &csvSink{mutexSink: base}
	case FormatLong:
		return &longSink{mutexSink: base}
	default:
		return &textSink{mutexSink: base, styles: newStyles(useColor)}
	}
}

// mutexSink holds the shared lock and buffered writer every format uses.
type mutexSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (s *mutexSink) flush() error {
	return s.w.Flush()
}

// IsTerminal reports whether fd refers to a terminal, via ioctl TCGETS.
// Grounded on the teacher's internal/output/color.go.
func IsTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}

// StdoutIsTerminal reports whether os.Stdout is a terminal.
func StdoutIsTerminal() bool {
	return IsTerminal(os.Stdout.Fd())
}

func formatMtime(sec int64) string {
	return time.Unix(sec, 0).Format("2006-01-02 15:04")
}
