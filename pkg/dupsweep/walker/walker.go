package walker

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

var logger = logging.Get("walker")

// File is a regular file found by the walk.
type File struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Dir is one directory with its immediate regular files and subdirectories,
// both sorted by name.
type Dir struct {
	Path    string
	Files   []File
	Subdirs []string
}

// Stats summarizes a walk.
type Stats struct {
	Dirs  int64
	Files int64
	Bytes int64
}

// node accumulates children for one directory while fastwalk runs.
type node struct {
	files   []File
	subdirs []string
}

// Listing is the result of a walk.
type Listing struct {
	root   string
	nodes  map[string]*node
	stats  Stats
	errors []types.ScanError
}

// Root returns the absolute root of the walk.
func (l *Listing) Root() string {
	return l.root
}

// Stats returns directory, file and byte totals.
func (l *Listing) Stats() Stats {
	return l.stats
}

// Errors returns the entries that could not be read.
func (l *Listing) Errors() []types.ScanError {
	return l.errors
}

// Dirs yields every directory depth-first, starting at the root, with
// siblings in name order. The order is the same for every run over an
// unchanged tree.
func (l *Listing) Dirs() iter.Seq[Dir] {
	return func(yield func(Dir) bool) {
		stack := []string{l.root}
		for len(stack) > 0 {
			path := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n, ok := l.nodes[path]
			if !ok {
				continue
			}
			if !yield(Dir{Path: path, Files: n.files, Subdirs: n.subdirs}) {
				return
			}
			for i := len(n.subdirs) - 1; i >= 0; i-- {
				stack = append(stack, n.subdirs[i])
			}
		}
	}
}

// Walker walks a directory tree.
type Walker struct {
	opts    Options
	exclude *excluder

	mu     sync.Mutex
	nodes  map[string]*node
	stats  Stats
	errors []types.ScanError
}

// New creates a Walker with the given options.
func New(opts Options) *Walker {
	return &Walker{opts: opts, exclude: newExcluder(opts.Exclude)}
}

// Walk enumerates the tree. Unreadable entries are collected in the
// listing's errors; only an unusable root or cancellation fails the walk.
func (w *Walker) Walk(ctx context.Context) (*Listing, error) {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return nil, err
	}

	w.nodes = map[string]*node{root: {}}
	w.stats = Stats{Dirs: 1}
	w.errors = nil

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: ResolveWorkers(w.opts.Workers),
	}

	err = fastwalk.Walk(&conf, root, w.callback(ctx, root))
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return nil, err
	}

	for _, n := range w.nodes {
		sort.Slice(n.files, func(i, j int) bool { return n.files[i].Name < n.files[j].Name })
		sort.Strings(n.subdirs)
	}

	logger.Debug("walk complete", "root", root, "dirs", w.stats.Dirs, "files", w.stats.Files, "errors", len(w.errors))

	return &Listing{
		root:   root,
		nodes:  w.nodes,
		stats:  w.stats,
		errors: w.errors,
	}, nil
}

// callback returns the fastwalk callback. It runs on several goroutines.
func (w *Walker) callback(ctx context.Context, root string) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			w.addError(path, err)
			return nil
		}

		if path == root {
			return nil
		}

		if w.exclude.match(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			w.addDir(path)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.addError(path, err)
			return nil
		}
		w.addFile(File{
			Path:    path,
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	}
}

func (w *Walker) addDir(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.nodes[path]; !ok {
		w.nodes[path] = &node{}
	}
	p := w.parent(path)
	p.subdirs = append(p.subdirs, path)
	w.stats.Dirs++
}

func (w *Walker) addFile(f File) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.parent(f.Path)
	p.files = append(p.files, f)
	w.stats.Files++
	w.stats.Bytes += f.Size
}

// parent returns the node for path's parent directory. Must be called
// with w.mu held.
func (w *Walker) parent(path string) *node {
	dir := filepath.Dir(path)
	n, ok := w.nodes[dir]
	if !ok {
		n = &node{}
		w.nodes[dir] = n
	}
	return n
}

func (w *Walker) addError(path string, err error) {
	logger.Warn("cannot read entry", "path", path, "err", err)

	w.mu.Lock()
	w.errors = append(w.errors, types.ScanError{Path: path, Error: err.Error()})
	w.mu.Unlock()
}

// ContainedFiles returns every regular file below dir, sorted. Entries
// that cannot be read are skipped and reported in the returned error.
func ContainedFiles(dir string) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
		errs  []error
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if path != dir && d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}

	sort.Strings(files)
	return files, errors.Join(errs...)
}

// excluder matches paths against exclusion patterns. A pattern excludes
// a path when it names the path or one of its ancestors, or when it is a
// glob matching the full path or the base name. Globs use '/' as the
// separator, so "**" spans directories. Relative patterns are resolved
// against the working directory, like the root.
type excluder struct {
	prefixes []string
	globs    []glob.Glob
}

func newExcluder(patterns []string) *excluder {
	e := &excluder{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		abs, err := filepath.Abs(pattern)
		if err != nil {
			abs = filepath.Clean(pattern)
		}
		e.prefixes = append(e.prefixes, abs)

		e.addGlob(pattern)
		if abs != pattern && strings.ContainsRune(filepath.ToSlash(pattern), '/') {
			e.addGlob(filepath.ToSlash(abs))
		}
	}
	return e
}

func (e *excluder) addGlob(pattern string) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		logger.Warn("ignoring invalid exclude pattern", "pattern", pattern, "err", err)
		return
	}
	e.globs = append(e.globs, g)
}

// match reports whether path is excluded.
func (e *excluder) match(path string) bool {
	for _, prefix := range e.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, g := range e.globs {
		if g.Match(base) || g.Match(path) {
			return true
		}
	}
	return false
}
