// Package config holds the immutable search configuration shared by every
// task in a walk, and the small value types the entry filter compares
// against (size/mtime/permission predicates).
package config

import (
	"fmt"
	"regexp"
	"runtime"

	"github.com/limearch/fastfind/internal/sink"
)

// TypeMask is a bitset over {file, directory, symlink}.
type TypeMask int

const (
	TypeFile TypeMask = 1 << iota
	TypeDir
	TypeLink
)

// AllTypes is the default mask when the user does not restrict --type.
const AllTypes = TypeFile | TypeDir | TypeLink

// Comparator is the operator used by the size and mtime predicates.
type Comparator int

const (
	CompNone Comparator = iota
	CompLess
	CompEqual
	CompGreater
)

// SizePredicate filters regular files by st_size.
type SizePredicate struct {
	Enabled    bool
	Threshold  int64
	Comparator Comparator // "+N" is CompGreater (size > N), "-N" is CompLess (size < N), bare or "=N" is CompEqual
}

// MtimePredicate filters regular files by now - st_mtime.
//
// Comparator meanings (matching spec.md §3/§4.3.4):
//   - CompGreater ("older-than"): age >= threshold
//   - CompLess ("newer-than"): age <= threshold
//   - CompEqual ("exactly"): age falls within [threshold, threshold+86399] seconds,
//     a same-day window (see SPEC_FULL.md's resolution of the mtime Open Question).
type MtimePredicate struct {
	Enabled    bool
	Threshold  int64 // seconds
	Comparator Comparator
}

// PermsPredicate filters by the low 9 mode bits, exact match.
type PermsPredicate struct {
	Enabled bool
	Mode    uint32
}

// OwnerPredicate filters by st_uid.
type OwnerPredicate struct {
	Enabled bool
	UID     uint32
}

// SearchConfig is immutable after construction and shared by reference
// across every WalkTask. See spec.md §3.
type SearchConfig struct {
	RootDir string

	NameRegex    *regexp.Regexp
	ContentRegex *regexp.Regexp

	Extension         string
	ExtensionCaseFold bool

	MaxDepth int // -1 means unlimited

	TypeMask TypeMask

	Size  SizePredicate
	Mtime MtimePredicate
	Owner OwnerPredicate
	Perms PermsPredicate

	ExcludeDirs []string

	IgnoreVCS  bool
	NoHidden   bool
	WithLineNo bool

	Workers    int
	QueueDepth int

	Sink sink.Sink

	// MatchHandler is invoked once per matching entry, under no locks
	// (spec.md §4.6). cmd/fastfind leaves it nil; the zero value means
	// "write to Sink".
	MatchHandler func(rec EntryRecord)
}

// EntryRecord is the transient, per-visit value passed to filters and
// match handlers. It is never stored across tasks (spec.md §3).
type EntryRecord struct {
	Path    string
	Name    string
	Type    TypeMask
	Depth   int
	Size    int64
	Mtime   int64 // unix seconds
	UID     uint32
	GID     uint32
	Mode    uint32 // full mode bits, including type bits
	NLink   uint64
}

// Validate checks setup-time invariants and returns a setup error
// (spec.md §7 class 1) if the config cannot run a walk.
func (c *SearchConfig) Validate() error {
	if c.NameRegex == nil {
		return fmt.Errorf("no name pattern given")
	}
	if c.TypeMask == 0 {
		return fmt.Errorf("type mask excludes every entry type")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("queue depth must be positive, got %d", c.QueueDepth)
	}
	if c.Sink == nil {
		return fmt.Errorf("no output sink configured")
	}
	return nil
}

// DefaultQueueDepth mirrors the original C tool's threadpool_create(...,
// 4096) queue capacity (fastfind/src/main.c).
const DefaultQueueDepth = 4096

// New builds a SearchConfig with the original tool's defaults
// (search.c's init_search_config): "." root, unlimited depth, VCS
// ignoring and hidden-skipping both on, every type included.
func New() *SearchConfig {
	return &SearchConfig{
		RootDir:    ".",
		MaxDepth:   -1,
		TypeMask:   AllTypes,
		IgnoreVCS:  true,
		NoHidden:   true,
		Workers:    runtime.NumCPU(),
		QueueDepth: DefaultQueueDepth,
	}
}
