package hound

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/limearch/fastfind/internal/taskpool"
)

// Finding is one reported match, written as one JSON Lines object
// ({"file","line","rule_id","description","match","entropy"}), matching
// the original tool's "silent worker, NDJSON to stdout" contract.
type Finding struct {
	File        string  `json:"file"`
	Line        int     `json:"line"`
	RuleID      string  `json:"rule_id"`
	Description string  `json:"description"`
	Match       string  `json:"match"`
	Entropy     float64 `json:"entropy"`
}

// Scanner walks a directory tree and scans every regular file's content
// against a fixed rule set, reusing the core task pool (spec.md §4.1)
// rather than the fuller directory-walker component: no metadata filters,
// no ignore sets beyond a hardcoded hidden-file skip, content only.
type Scanner struct {
	rules []Rule
	pool  *taskpool.Pool

	outMu sync.Mutex
	out   *bufio.Writer

	active sync.WaitGroup
}

// NewScanner constructs a Scanner with the given rules and worker count,
// writing NDJSON findings to w.
func NewScanner(rules []Rule, workers int, w *bufio.Writer) (*Scanner, error) {
	pool, err := taskpool.New(workers, taskpoolQueueDepth)
	if err != nil {
		return nil, err
	}
	return &Scanner{rules: rules, pool: pool, out: w}, nil
}

// taskpoolQueueDepth mirrors Scanner::Scanner's threadpool_create(num_threads, 4096).
const taskpoolQueueDepth = 4096

// ScanDirectory recursively scans directoryPath, skipping hidden entries
// (scan_directory / WalkOptions{skip_hidden: true} in scanner.cpp), and
// blocks until every dispatched file has been scanned.
func (s *Scanner) ScanDirectory(directoryPath string) error {
	if err := s.walk(directoryPath); err != nil {
		return err
	}
	s.active.Wait()
	s.pool.Shutdown()
	return s.out.Flush()
}

func (s *Scanner) walk(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("cannot open directory", "path", dir, "err", err)
		return nil
	}

	for _, de := range entries {
		name := de.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		full := filepath.Join(dir, name)

		if de.Type()&os.ModeSymlink != 0 {
			continue
		}
		if de.IsDir() {
			if err := s.walk(full); err != nil {
				return err
			}
			continue
		}
		if !de.Type().IsRegular() {
			continue
		}

		s.active.Add(1)
		path := full
		if err := s.pool.Submit(func() {
			defer s.active.Done()
			s.scanFile(path)
		}); err != nil {
			s.active.Done()
			log.Warn("could not dispatch file scan", "path", full, "err", err)
		}
	}
	return nil
}

func (s *Scanner) scanFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 1
	for scanner.Scan() {
		line := scanner.Text()
		for _, rule := range s.rules {
			for _, m := range rule.Regex.FindAllString(line, -1) {
				entropy := 0.0
				if rule.MinEntropy > 0 {
					entropy = ShannonEntropy(m)
					if entropy < rule.MinEntropy {
						continue
					}
				}
				s.report(Finding{
					File:        path,
					Line:        lineNum,
					RuleID:      rule.ID,
					Description: rule.Description,
					Match:       m,
					Entropy:     entropy,
				})
			}
		}
		lineNum++
	}
}

func (s *Scanner) report(f Finding) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	s.out.Write(b)
	s.out.WriteString("\n")
	s.out.Flush()
}
