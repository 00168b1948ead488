package sink

import (
	"strconv"
	"strings"
)

// csvSink writes the CSV format from spec.md §4.5: header "path,type,size,mtime",
// then one row per match with the path always quoted and the remaining
// fields unquoted numbers or single characters (spec.md's wire-format note).
type csvSink struct {
	*mutexSink
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (s *csvSink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.WriteString("path,type,size,mtime\n")
	return err
}

func (s *csvSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *csvSink) WriteRecord(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := quoteCSV(r.Path) + "," +
		string(r.Type.Char()) + "," +
		strconv.FormatInt(r.Size, 10) + "," +
		strconv.FormatInt(r.Mtime, 10) + "\n"
	_, err := s.w.WriteString(line)
	return err
}

func (s *csvSink) WriteLineMatch(m LineMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := quoteCSV(m.Path) + "," + strconv.Itoa(m.Line) + "," + quoteCSV(m.Text) + "\n"
	_, err := s.w.WriteString(line)
	return err
}
