package sink

import (
	"encoding/json"
)

// jsonRecord is the exact schema from spec.md §4.5: {"path","type","size","mtime"}.
type jsonRecord struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
}

type jsonLineRecord struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// jsonSink writes a JSON array of matching records.
//
// Known limitation, preserved from spec.md §9: the separator between
// records is written before every record after the first, tracked by a
// plain counter (matchesFound) rather than a proper streaming encoder with
// a trailing-comma fixup pass. Concurrent writers therefore determine
// "am I first" via this counter under the same lock that does the write,
// which is correct, but offers no way to go back and fix up the array if
// a later write fails after a separator was already emitted.
type jsonSink struct {
	*mutexSink
	matchesFound int
}

func (s *jsonSink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.WriteString("[")
	return err
}

func (s *jsonSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString("]\n"); err != nil {
		return err
	}
	return s.flush()
}

func (s *jsonSink) WriteRecord(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := jsonRecord{
		Path:  r.Path,
		Type:  string(r.Type.Char()),
		Size:  r.Size,
		Mtime: r.Mtime,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if s.matchesFound > 0 {
		if _, err := s.w.WriteString(",\n"); err != nil {
			return err
		}
	}
	s.matchesFound++
	_, err = s.w.Write(b)
	return err
}

func (s *jsonSink) WriteLineMatch(m LineMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := jsonLineRecord{Path: m.Path, Line: m.Line, Text: m.Text}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if s.matchesFound > 0 {
		if _, err := s.w.WriteString(",\n"); err != nil {
			return err
		}
	}
	s.matchesFound++
	_, err = s.w.Write(b)
	return err
}
