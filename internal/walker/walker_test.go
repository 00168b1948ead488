package walker

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/limearch/fastfind/internal/config"
	"github.com/limearch/fastfind/internal/sink"
)

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
}

func mustWriteFile(t *testing.T, path string, body string) {
	t.Helper()
	mustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// jsonPaths extracts the "path" field of every object in a JSON-array
// output, ignoring order (spec.md §5: "Tests must not depend on entry
// order").
func jsonPaths(t *testing.T, data []byte) []string {
	t.Helper()
	var recs []struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatalf("json.Unmarshal(%q): %v", data, err)
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Path
	}
	sort.Strings(out)
	return out
}

func runWalk(t *testing.T, cfg *config.SearchConfig) {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func newTestConfig(root string, buf *bytes.Buffer) *config.SearchConfig {
	cfg := config.New()
	cfg.RootDir = root
	cfg.Workers = 4
	cfg.QueueDepth = 64
	cfg.Sink = sink.New(buf, sink.FormatJSON, false)
	cfg.Sink.Open()
	return cfg
}

// Scenario 1 (spec.md §8): a/b/c.txt, a/b/d.log, a/e.txt with pattern .*\.txt$.
func TestScenario_NamePattern(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a/b/c.txt"), "x")
	mustWriteFile(t, filepath.Join(root, "a/b/d.log"), "x")
	mustWriteFile(t, filepath.Join(root, "a/e.txt"), "x")

	var buf bytes.Buffer
	cfg := newTestConfig(filepath.Join(root, "a"), &buf)
	cfg.NameRegex = regexp.MustCompile(`.*\.txt$`)
	cfg.NoHidden = false
	cfg.IgnoreVCS = false

	runWalk(t, cfg)
	cfg.Sink.Close()

	got := jsonPaths(t, buf.Bytes())
	want := []string{filepath.Join(root, "a/b/c.txt"), filepath.Join(root, "a/e.txt")}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// Scenario 2: max-depth 1 excludes a/b/c.txt but includes a/b and a/e.txt.
func TestScenario_MaxDepth(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a/b/c.txt"), "x")
	mustWriteFile(t, filepath.Join(root, "a/e.txt"), "x")

	var buf bytes.Buffer
	cfg := newTestConfig(filepath.Join(root, "a"), &buf)
	cfg.NameRegex = regexp.MustCompile(`.*`)
	cfg.MaxDepth = 1
	cfg.NoHidden = false
	cfg.IgnoreVCS = false

	runWalk(t, cfg)
	cfg.Sink.Close()

	got := jsonPaths(t, buf.Bytes())
	for _, p := range got {
		if p == filepath.Join(root, "a/b/c.txt") {
			t.Errorf("max-depth 1 should not reach a/b/c.txt, got %v", got)
		}
	}
	foundB := false
	for _, p := range got {
		if p == filepath.Join(root, "a/b") {
			foundB = true
		}
	}
	if !foundB {
		t.Errorf("expected a/b in results, got %v", got)
	}
}

// Scenario 3: .gitignore with node_modules excludes that subtree.
func TestScenario_IgnoreFile(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a/.gitignore"), "node_modules\n")
	mustWriteFile(t, filepath.Join(root, "a/node_modules/x.js"), "x")
	mustWriteFile(t, filepath.Join(root, "a/src/y.js"), "x")

	var buf bytes.Buffer
	cfg := newTestConfig(filepath.Join(root, "a"), &buf)
	cfg.NameRegex = regexp.MustCompile(`.*\.js$`)
	cfg.IgnoreVCS = true
	cfg.NoHidden = false

	runWalk(t, cfg)
	cfg.Sink.Close()

	got := jsonPaths(t, buf.Bytes())
	if len(got) != 1 || got[0] != filepath.Join(root, "a/src/y.js") {
		t.Errorf("got %v, want only a/src/y.js", got)
	}
}

// Scenario 4: size filter +1K matches only the 2048-byte file.
func TestScenario_SizeFilter(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "small"), string(make([]byte, 100)))
	mustWriteFile(t, filepath.Join(root, "medium"), string(make([]byte, 1024)))
	mustWriteFile(t, filepath.Join(root, "big"), string(make([]byte, 2048)))

	var buf bytes.Buffer
	cfg := newTestConfig(root, &buf)
	cfg.NameRegex = regexp.MustCompile(`.*`)
	cfg.Size = config.SizePredicate{Enabled: true, Threshold: 1024, Comparator: config.CompGreater}
	cfg.NoHidden = false
	cfg.IgnoreVCS = false
	cfg.MaxDepth = 0

	runWalk(t, cfg)
	cfg.Sink.Close()

	got := jsonPaths(t, buf.Bytes())
	if len(got) != 1 || got[0] != filepath.Join(root, "big") {
		t.Errorf("got %v, want only the 2048-byte file", got)
	}
}

// Scenario 6: a symlink to a directory is reported once and not recursed into.
func TestScenario_SymlinkNotTraversed(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "a"))
	mustWriteFile(t, filepath.Join(root, "a/inside.txt"), "x")
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a/link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	var buf bytes.Buffer
	cfg := newTestConfig(filepath.Join(root, "a"), &buf)
	cfg.NameRegex = regexp.MustCompile(`.*`)
	cfg.NoHidden = false
	cfg.IgnoreVCS = false
	cfg.MaxDepth = -1

	runWalk(t, cfg)
	cfg.Sink.Close()

	got := jsonPaths(t, buf.Bytes())
	count := 0
	for _, p := range got {
		if p == filepath.Join(root, "a/link") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected the symlink to appear exactly once, got %d occurrences in %v", count, got)
	}
}

// Boundary: max_depth = 0 enumerates only the root, no child tasks.
func TestBoundary_MaxDepthZero(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "top.txt"), "x")
	mustWriteFile(t, filepath.Join(root, "sub/deep.txt"), "x")

	var buf bytes.Buffer
	cfg := newTestConfig(root, &buf)
	cfg.NameRegex = regexp.MustCompile(`.*\.txt$`)
	cfg.MaxDepth = 0
	cfg.NoHidden = false
	cfg.IgnoreVCS = false

	runWalk(t, cfg)
	cfg.Sink.Close()

	got := jsonPaths(t, buf.Bytes())
	if len(got) != 1 || got[0] != filepath.Join(root, "top.txt") {
		t.Errorf("got %v, want only top.txt", got)
	}
}
