package sink

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by the text sink. Grounded on the
// teacher's internal/output/color.go.
type Styles struct {
	Path       lipgloss.Style
	TypeTag    lipgloss.Style
	Executable lipgloss.Style
	LineNum    lipgloss.Style
	Separator  lipgloss.Style
}

func newStyles(color bool) Styles {
	if !color {
		return Styles{
			Path:       lipgloss.NewStyle(),
			TypeTag:    lipgloss.NewStyle(),
			Executable: lipgloss.NewStyle(),
			LineNum:    lipgloss.NewStyle(),
			Separator:  lipgloss.NewStyle(),
		}
	}
	return Styles{
		Path:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		TypeTag:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Executable: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		LineNum:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Separator:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// textSink is the default human-readable format (spec.md §4.5): the path,
// colorized, followed by a bracketed type tag.
type textSink struct {
	*mutexSink
	styles Styles
}

func (s *textSink) Open() error  { return nil }
func (s *textSink) Close() error { s.mu.Lock(); defer s.mu.Unlock(); return s.flush() }

func (s *textSink) WriteRecord(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.styles.Path.Render(r.Path)
	if r.Type == TypeFile && r.Executable {
		path = s.styles.Executable.Render(r.Path)
	}
	tag := s.styles.TypeTag.Render(fmt.Sprintf("[%c]", r.Type.Char()))
	_, err := fmt.Fprintf(s.w, "%s %s\n", path, tag)
	return err
}

func (s *textSink) WriteLineMatch(m LineMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.styles.Path.Render(m.Path)
	sep := s.styles.Separator.Render(":")
	line := s.styles.LineNum.Render(fmt.Sprintf("%d", m.Line))
	_, err := fmt.Fprintf(s.w, "%s%s%s%s%s\n", path, sep, line, sep, m.Text)
	return err
}
