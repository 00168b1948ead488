package sink

import "fmt"

// longSink writes the long-listing format from spec.md §4.5: symbolic
// permission string, link count, uid, gid, size, mtime ("YYYY-MM-DD
// HH:MM"), path.
type longSink struct {
	*mutexSink
}

func (s *longSink) Open() error  { return nil }
func (s *longSink) Close() error { s.mu.Lock(); defer s.mu.Unlock(); return s.flush() }

func (s *longSink) WriteRecord(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	perms := formatPermString(r.Mode, r.Type == TypeDir, r.Type == TypeLink)
	_, err := fmt.Fprintf(s.w, "%s %4d %5d %5d %10d %s %s\n",
		perms, r.NLink, r.UID, r.GID, r.Size, formatMtime(r.Mtime), r.Path)
	return err
}

func (s *longSink) WriteLineMatch(m LineMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s:%d:%s\n", m.Path, m.Line, m.Text)
	return err
}

// formatPermString renders the symbolic permission string ("drwxr-xr-x").
// Mirrors config.FormatPermissions but kept local so sink stays a leaf
// package with no dependency on config.
func formatPermString(mode uint32, isDir, isLink bool) string {
	buf := []byte("----------")
	if isDir {
		buf[0] = 'd'
	}
	if isLink {
		buf[0] = 'l'
	}
	bits := []struct {
		mask uint32
		pos  int
		ch   byte
	}{
		{0o400, 1, 'r'}, {0o200, 2, 'w'}, {0o100, 3, 'x'},
		{0o040, 4, 'r'}, {0o020, 5, 'w'}, {0o010, 6, 'x'},
		{0o004, 7, 'r'}, {0o002, 8, 'w'}, {0o001, 9, 'x'},
	}
	for _, b := range bits {
		if mode&b.mask != 0 {
			buf[b.pos] = b.ch
		}
	}
	return string(buf)
}
