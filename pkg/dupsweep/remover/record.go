package remover

import (
	"path/filepath"
	"sort"
	"strings"
)

// Record is the set of paths removed so far in a run, plus the paths
// that must survive it. It is a value: With, WithDir and WithKept return
// a new Record and leave the receiver unchanged. The zero Record is empty
// and ready to use.
type Record struct {
	paths map[string]struct{}
	dirs  []string
	kept  map[string]struct{}
}

// With returns a copy of r that also holds paths.
func (r Record) With(paths ...string) Record {
	out := r.clone()
	for _, p := range paths {
		out.paths[filepath.Clean(p)] = struct{}{}
	}
	return out
}

// WithDir returns a copy of r holding dir and the files found inside it.
// Every path below dir is reported as contained, listed or not.
func (r Record) WithDir(dir string, files []string) Record {
	out := r.With(files...)
	dir = filepath.Clean(dir)
	out.paths[dir] = struct{}{}
	out.dirs = append(out.dirs, dir)
	return out
}

// Contains reports whether path was removed, directly or as part of a
// removed directory.
func (r Record) Contains(path string) bool {
	path = filepath.Clean(path)
	if _, ok := r.paths[path]; ok {
		return true
	}
	for _, dir := range r.dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// WithKept returns a copy of r that protects paths from later removal.
func (r Record) WithKept(paths ...string) Record {
	out := r.clone()
	for _, p := range paths {
		out.kept[filepath.Clean(p)] = struct{}{}
	}
	return out
}

// Protects reports whether removing path would take a kept path with it:
// path is itself kept or is an ancestor of a kept path.
func (r Record) Protects(path string) bool {
	path = filepath.Clean(path)
	if _, ok := r.kept[path]; ok {
		return true
	}
	prefix := path
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	for k := range r.kept {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Len returns the number of recorded paths.
func (r Record) Len() int {
	return len(r.paths)
}

// Paths returns the recorded paths, sorted.
func (r Record) Paths() []string {
	out := make([]string, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r Record) clone() Record {
	out := Record{
		paths: make(map[string]struct{}, len(r.paths)),
		dirs:  append([]string(nil), r.dirs...),
		kept:  make(map[string]struct{}, len(r.kept)),
	}
	for p := range r.paths {
		out.paths[p] = struct{}{}
	}
	for p := range r.kept {
		out.kept[p] = struct{}{}
	}
	return out
}
