package hound

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestScannerFindsMatches(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("line one\nTOKEN=abc123\nline three\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rules := []Rule{{ID: "TOKEN", Description: "a token", Regex: regexp.MustCompile(`TOKEN=\w+`)}}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	s, err := NewScanner(rules, 2, w)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	if err := s.ScanDirectory(dir); err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d findings, want 1: %q", len(lines), buf.String())
	}

	var f Finding
	if err := json.Unmarshal([]byte(lines[0]), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.Line != 2 || f.RuleID != "TOKEN" || f.Match != "TOKEN=abc123" {
		t.Errorf("finding = %+v", f)
	}
}

func TestScannerSkipsHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("TOKEN=shouldnotmatch"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rules := []Rule{{ID: "TOKEN", Regex: regexp.MustCompile(`TOKEN=\w+`)}}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	s, _ := NewScanner(rules, 1, w)
	if err := s.ScanDirectory(dir); err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("hidden .git directory should not be scanned, got %q", buf.String())
	}
}

func TestScannerEntropyGate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("KEY=aaaaaaaaaaaaaaaa\nKEY=aK91!cZ0pQr2mN\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rules := []Rule{{ID: "KEY", Regex: regexp.MustCompile(`KEY=\S+`), MinEntropy: 3.5}}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	s, _ := NewScanner(rules, 1, w)
	if err := s.ScanDirectory(dir); err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the high-entropy line to pass the gate, got %d findings: %q", len(lines), buf.String())
	}
}
