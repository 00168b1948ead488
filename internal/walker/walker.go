// Package walker implements the directory walker described in spec.md
// §4.4: one task per directory, lstat-only metadata, filter evaluation,
// and forking of child tasks for subdirectories. Grounded directly on the
// original tool's search_directory in search.c.
package walker

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"github.com/limearch/fastfind/internal/config"
	"github.com/limearch/fastfind/internal/filter"
	"github.com/limearch/fastfind/internal/ignoreset"
	"github.com/limearch/fastfind/internal/sink"
	"github.com/limearch/fastfind/internal/taskpool"
)

// Counters are the process-wide atomic counters from spec.md §3.
type Counters struct {
	DirsScanned  atomic.Int64
	FilesScanned atomic.Int64
	MatchesFound atomic.Int64
	ActiveTasks  atomic.Int64
}

// Walker owns the task pool, the shared config, and the completion
// condition the seeder blocks on.
type Walker struct {
	cfg      *config.SearchConfig
	pool     *taskpool.Pool
	counters Counters

	doneMu sync.Mutex
	done   sync.Cond
}

// New constructs a Walker backed by a fresh task pool sized per cfg.
func New(cfg *config.SearchConfig) (*Walker, error) {
	pool, err := taskpool.New(cfg.Workers, cfg.QueueDepth)
	if err != nil {
		return nil, err
	}
	w := &Walker{cfg: cfg, pool: pool}
	w.done.L = &w.doneMu
	return w, nil
}

// Counters exposes the live counters for a startup/summary line.
func (w *Walker) Counters() *Counters { return &w.counters }

// task is the Go analogue of search_task_arg_t: owned by exactly one
// worker at a time, destroyed after processing.
type task struct {
	path     string
	depth    int
	inherited *ignoreset.Set
}

// Run seeds the pool with the root directory and blocks until every task
// (the root plus everything it transitively forks) has completed. The
// active-task count is set to 1 before the seed is submitted, matching
// main.c's atomic_store(&active_tasks, 1) preceding threadpool_add.
func (w *Walker) Run() error {
	w.counters.ActiveTasks.Store(1)
	root := task{path: w.cfg.RootDir, depth: 0}
	if err := w.pool.Submit(func() { w.runTask(root) }); err != nil {
		return err
	}

	w.doneMu.Lock()
	for w.counters.ActiveTasks.Load() != 0 {
		w.done.Wait()
	}
	w.doneMu.Unlock()

	w.pool.Shutdown()
	return nil
}

// runTask processes a single directory. It is the taskpool.Task body for
// the seed submitted by Run and for every forked child.
func (w *Walker) runTask(t task) {
	defer w.finishTask(t)

	if w.cfg.MaxDepth != -1 && t.depth > w.cfg.MaxDepth {
		return
	}

	w.counters.DirsScanned.Add(1)

	entries, err := readDirents(t.path)
	if err != nil {
		log.Warn("cannot open directory", "path", t.path, "err", err)
		return
	}

	var localIgnore *ignoreset.Set
	if w.cfg.IgnoreVCS {
		localIgnore = ignoreset.Load(t.path)
	}
	defer localIgnore.Release()

	for _, de := range entries {
		name := de.Name
		fullPath := filepath.Join(t.path, name)

		var stat syscall.Stat_t
		if err := syscall.Lstat(fullPath, &stat); err != nil {
			continue
		}

		if w.cfg.NoHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if excluded(name, w.cfg.ExcludeDirs) {
			continue
		}
		if w.cfg.IgnoreVCS && (localIgnore.Matches(name) || t.inherited.Matches(name)) {
			continue
		}

		rec := entryRecord(fullPath, name, t.depth, &stat)

		ok, contentResult := filter.Match(w.cfg, rec)
		if ok {
			if rec.Type == config.TypeFile {
				w.counters.FilesScanned.Add(1)
			}
			w.counters.MatchesFound.Add(1)
			if contentResult != filter.ContentReported {
				w.handleMatch(rec)
			}
		}

		if rec.Type == config.TypeDir && (w.cfg.MaxDepth == -1 || t.depth+1 <= w.cfg.MaxDepth) {
			w.forkChild(fullPath, t.depth+1, localIgnore, t.inherited)
		}
	}
}

// forkChild constructs and submits a child task, following the exact
// refcount discipline of spec.md §4.2/§4.4: prefer the local set, else the
// inherited one, else none; increment before publish; decrement both
// counters on submission failure.
func (w *Walker) forkChild(path string, depth int, local, inherited *ignoreset.Set) {
	var childIgnore *ignoreset.Set
	switch {
	case local != nil:
		childIgnore = local.Retain()
	case inherited != nil:
		childIgnore = inherited.Retain()
	}

	w.counters.ActiveTasks.Add(1)

	child := task{path: path, depth: depth, inherited: childIgnore}
	err := w.pool.Submit(func() { w.runTask(child) })
	if err != nil {
		childIgnore.Release()
		w.counters.ActiveTasks.Add(-1)
		log.Warn("could not dispatch subdirectory", "path", path, "err", err)
	}
}

// finishTask releases the inherited ignore set and performs the final
// active-task decrement, waking the seeder when the count reaches zero
// (spec.md §5's completion-detection protocol).
func (w *Walker) finishTask(t task) {
	t.inherited.Release()
	if w.counters.ActiveTasks.Add(-1) == 0 {
		w.doneMu.Lock()
		w.done.Broadcast()
		w.doneMu.Unlock()
	}
}

func (w *Walker) handleMatch(rec config.EntryRecord) {
	if w.cfg.MatchHandler != nil {
		w.cfg.MatchHandler(rec)
		return
	}
	w.cfg.Sink.WriteRecord(sink.Record{
		Path:       rec.Path,
		Type:       sink.EntryType(rec.Type),
		Size:       rec.Size,
		Mtime:      rec.Mtime,
		Mode:       rec.Mode,
		NLink:      rec.NLink,
		UID:        rec.UID,
		GID:        rec.GID,
		Executable: rec.Type == config.TypeFile && rec.Mode&0o100 != 0,
	})
}

func excluded(name string, list []string) bool {
	for _, e := range list {
		if e == name {
			return true
		}
	}
	return false
}

func entryRecord(path, name string, depth int, stat *syscall.Stat_t) config.EntryRecord {
	return config.EntryRecord{
		Path:  path,
		Name:  name,
		Type:  typeFromMode(stat.Mode),
		Depth: depth,
		Size:  stat.Size,
		Mtime: stat.Mtim.Sec,
		UID:   stat.Uid,
		GID:   stat.Gid,
		Mode:  stat.Mode,
		NLink: uint64(stat.Nlink),
	}
}

// typeFromMode classifies a stat mode into the {file, directory, symlink}
// mask of spec.md §3. Grounded on search.c:169, which only ever sets
// is_file via S_ISREG(...): FIFOs, sockets, and block/char devices match
// none of the three types, so they fail the type-mask predicate outright
// and are never opened for content scanning or recursed into.
func typeFromMode(mode uint32) config.TypeMask {
	switch mode & syscall.S_IFMT {
	case syscall.S_IFDIR:
		return config.TypeDir
	case syscall.S_IFLNK:
		return config.TypeLink
	case syscall.S_IFREG:
		return config.TypeFile
	default:
		return 0
	}
}

// readDirents opens path and reads its entries via raw getdents64, using
// ParseDirents (dirent.go) the way the teacher's package parses directory
// buffers. The dirent d_type is advisory only — the walker always lstats
// each entry itself per spec.md §4.4 step 5b, since some filesystems
// report DT_UNKNOWN.
func readDirents(path string) ([]Dirent, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	var all []Dirent
	buf := make([]byte, 64*1024)
	var scratch []Dirent
	for {
		n, err := unix.Getdents(fd, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		scratch = ParseDirents(buf, n, scratch)
		all = append(all, scratch...)
	}
	return all, nil
}
