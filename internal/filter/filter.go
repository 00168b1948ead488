// Package filter implements the ordered, short-circuiting entry predicate
// chain described in spec.md §4.3.
package filter

import (
	"strings"
	"time"

	"github.com/limearch/fastfind/internal/config"
	"github.com/limearch/fastfind/internal/ioread"
	"github.com/limearch/fastfind/internal/sink"
)

// mmapThreshold is the size above which content scanning reads a file via
// mmap rather than a single buffered read; below it the syscall overhead
// of mmap isn't worth it. Grounded on the teacher's NewAdaptiveReader.
const mmapThreshold = 256 * 1024

var fileReader = ioread.NewAdaptiveReader(mmapThreshold)

// nowFunc is overridden in tests so mtime comparisons are deterministic.
var nowFunc = func() int64 { return time.Now().Unix() }

func lineMatch(path string, line int, text string) sink.LineMatch {
	return sink.LineMatch{Path: path, Line: line, Text: text}
}

// ContentResult distinguishes "the content predicate matched" from
// "the content predicate already reported its own matches", so the walker
// knows whether to invoke the default match handler (spec.md §4.3 step 6,
// §4.6).
type ContentResult int

const (
	// ContentNoPredicate means no content regex was configured; the step
	// is skipped and treated as a pass.
	ContentNoPredicate ContentResult = iota
	ContentNoMatch
	ContentMatch
	// ContentReported means line-number mode already wrote every
	// matching line directly to the sink; the caller must not also
	// invoke the default match handler.
	ContentReported
)

// Match runs the full predicate chain against rec and returns whether it
// is a match, plus the content-step outcome (used by the walker to decide
// whether the match handler still needs to run).
func Match(cfg *config.SearchConfig, rec config.EntryRecord) (bool, ContentResult) {
	if rec.Type&cfg.TypeMask == 0 {
		return false, ContentNoPredicate
	}

	if !cfg.NameRegex.MatchString(rec.Name) {
		return false, ContentNoPredicate
	}

	isFile := rec.Type == config.TypeFile

	if cfg.Size.Enabled {
		if !isFile || !matchSize(cfg.Size, rec.Size) {
			return false, ContentNoPredicate
		}
	}

	if cfg.Mtime.Enabled {
		if !isFile || !matchMtime(cfg.Mtime, rec.Mtime) {
			return false, ContentNoPredicate
		}
	}

	if cfg.Extension != "" {
		if !isFile || !matchExtension(cfg.Extension, rec.Name, cfg.ExtensionCaseFold) {
			return false, ContentNoPredicate
		}
	}

	contentResult := ContentNoPredicate
	if cfg.ContentRegex != nil {
		if !isFile {
			return false, ContentNoPredicate
		}
		if cfg.WithLineNo {
			found, err := reportContentLines(cfg, rec)
			if err != nil || !found {
				return false, ContentNoPredicate
			}
			contentResult = ContentReported
		} else {
			ok, err := matchContent(cfg.ContentRegex, rec.Path)
			if err != nil || !ok {
				return false, ContentNoPredicate
			}
			contentResult = ContentMatch
		}
	}

	if cfg.Owner.Enabled && rec.UID != cfg.Owner.UID {
		return false, ContentNoPredicate
	}

	if cfg.Perms.Enabled && (rec.Mode&0o777) != cfg.Perms.Mode {
		return false, ContentNoPredicate
	}

	return true, contentResult
}

func matchSize(p config.SizePredicate, size int64) bool {
	switch p.Comparator {
	case config.CompLess:
		return size < p.Threshold
	case config.CompGreater:
		return size > p.Threshold
	default: // CompEqual
		return size == p.Threshold
	}
}

// matchMtime implements spec.md §4.3 step 4, with the same-day window
// widening of the "exactly" comparator recorded in SPEC_FULL.md.
func matchMtime(p config.MtimePredicate, mtime int64) bool {
	age := nowFunc() - mtime
	if age < 0 {
		age = 0
	}
	switch p.Comparator {
	case config.CompGreater: // older-than
		return age >= p.Threshold
	case config.CompLess: // newer-than
		return age <= p.Threshold
	default: // exactly: same-day window
		return age >= p.Threshold && age <= p.Threshold+86399
	}
}

func matchExtension(ext, name string, caseFold bool) bool {
	if caseFold {
		return strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
	}
	return strings.HasSuffix(name, ext)
}

// matchContent reads path via the adaptive mmap/buffered reader and returns
// true on the first line that matches re. Per spec.md §4.3, a regex error at
// evaluation time is not possible here (re is pre-compiled); I/O errors are
// returned so the caller treats the entry as "no match" without aborting the
// walk.
func matchContent(re regexpMatcher, path string) (bool, error) {
	res, err := fileReader.Read(path)
	if err != nil {
		return false, err
	}
	defer res.Closer()

	for _, line := range res.Lines() {
		if re.Match(line) {
			return true, nil
		}
	}
	return false, nil
}

// reportContentLines reads rec.Path via the adaptive reader, writing every
// matching line directly to the sink (spec.md §4.3 step 6) and returns
// whether at least one line matched.
func reportContentLines(cfg *config.SearchConfig, rec config.EntryRecord) (bool, error) {
	res, err := fileReader.Read(rec.Path)
	if err != nil {
		return false, err
	}
	defer res.Closer()

	found := false
	for i, line := range res.Lines() {
		if cfg.ContentRegex.Match(line) {
			found = true
			cfg.Sink.WriteLineMatch(lineMatch(rec.Path, i+1, string(line)))
		}
	}
	return found, nil
}

// regexpMatcher is the minimal interface matchContent needs, satisfied by
// *regexp.Regexp; declared locally so this file does not need to import
// regexp just to name the parameter type.
type regexpMatcher interface {
	Match([]byte) bool
}
