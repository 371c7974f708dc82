// Package index groups scanned files by content digest and directories by
// the signature of their direct files.
package index

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/walker"
)

var logger = logging.Get("index")

// progressInterval throttles progress callbacks.
const progressInterval = 10 * time.Millisecond

// Digester computes a content digest for a file.
type Digester interface {
	Sum(path string) (string, error)
}

// Options configures Build.
type Options struct {
	// FilesOnly skips the directory phase.
	FilesOnly bool

	// OnProgress is called as files are hashed. Calls are throttled, except
	// for the first and last.
	OnProgress func(types.Progress)
}

// Index holds the hashed files and directories of one scan.
type Index struct {
	files      []types.FileEntry
	byPath     map[string]int
	dirs       []types.DirectoryEntry
	fileGroups []types.Group
	dirGroups  []types.Group
	errors     []types.ScanError
}

// Build hashes every file in the listing in walk order and groups the
// results. A file that cannot be hashed is reported and left out, and its
// directory is left out of the directory phase. Build returns early with
// ctx.Err() if the context is cancelled.
func Build(ctx context.Context, listing *walker.Listing, d Digester, opts Options) (*Index, error) {
	idx := &Index{byPath: make(map[string]int)}

	total := listing.Stats().Files
	var done int64
	var last time.Time
	report := func(path string, force bool) {
		if opts.OnProgress == nil {
			return
		}
		now := time.Now()
		if !force && now.Sub(last) < progressInterval {
			return
		}
		last = now
		opts.OnProgress(types.Progress{Done: done, Total: total, CurrentPath: path})
	}
	report("", true)

	for dir := range listing.Dirs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := types.DirectoryEntry{Path: dir.Path}
		complete := true

		for _, f := range dir.Files {
			digest, err := d.Sum(f.Path)
			done++
			report(f.Path, false)
			if err != nil {
				logger.Warn("skipping unreadable file", "path", f.Path, "err", err)
				idx.errors = append(idx.errors, types.ScanError{Path: f.Path, Error: err.Error()})
				complete = false
				continue
			}

			idx.byPath[f.Path] = len(idx.files)
			idx.files = append(idx.files, types.FileEntry{
				Path:   f.Path,
				Dir:    dir.Path,
				Digest: digest,
				Size:   f.Size,
			})
			entry.Files = append(entry.Files, types.NamedDigest{Name: f.Name, Digest: digest})
			entry.Size += f.Size
		}

		// A directory with a file we could not read may hold the only copy
		// of that file, so it never takes part in directory grouping.
		if complete && len(entry.Files) > 0 {
			entry.Signature = Signature(entry.Files)
			idx.dirs = append(idx.dirs, entry)
		}
	}
	report("", true)

	idx.fileGroups = groupFiles(idx.files)
	if !opts.FilesOnly {
		idx.dirGroups = groupDirs(idx.dirs)
	}

	logger.Debug("index built",
		"files", len(idx.files),
		"dirs", len(idx.dirs),
		"file_groups", len(idx.fileGroups),
		"dir_groups", len(idx.dirGroups),
		"errors", len(idx.errors))

	return idx, nil
}

// Signature returns the digest of a directory's direct files. The pairs are
// sorted first, so the result does not depend on listing order.
func Signature(files []types.NamedDigest) string {
	sorted := make([]types.NamedDigest, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Digest < sorted[j].Digest
	})

	h := md5.New()
	for _, f := range sorted {
		_, _ = io.WriteString(h, f.Name)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, f.Digest)
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// groupFiles groups entries by digest, keeping groups and members in
// discovery order, and drops groups with a single member.
func groupFiles(files []types.FileEntry) []types.Group {
	keys := make([]string, len(files))
	paths := make([]string, len(files))
	for i, f := range files {
		keys[i] = f.Digest
		paths[i] = f.Path
	}
	return group(types.KindFile, keys, paths)
}

func groupDirs(dirs []types.DirectoryEntry) []types.Group {
	keys := make([]string, len(dirs))
	paths := make([]string, len(dirs))
	for i, d := range dirs {
		keys[i] = d.Signature
		paths[i] = d.Path
	}
	return group(types.KindDir, keys, paths)
}

func group(kind types.Kind, keys, paths []string) []types.Group {
	pos := make(map[string]int)
	var all []types.Group
	for i, key := range keys {
		n, ok := pos[key]
		if !ok {
			n = len(all)
			pos[key] = n
			all = append(all, types.Group{Kind: kind, Digest: key})
		}
		all[n].Members = append(all[n].Members, paths[i])
	}

	actionable := all[:0]
	for _, g := range all {
		if g.Actionable() {
			actionable = append(actionable, g)
		}
	}
	return actionable
}

// Files returns every hashed file in walk order.
func (idx *Index) Files() []types.FileEntry {
	return idx.files
}

// File returns the entry for path, if it was hashed.
func (idx *Index) File(path string) (types.FileEntry, bool) {
	i, ok := idx.byPath[path]
	if !ok {
		return types.FileEntry{}, false
	}
	return idx.files[i], true
}

// Dirs returns every directory eligible for grouping in walk order.
func (idx *Index) Dirs() []types.DirectoryEntry {
	return idx.dirs
}

// FileGroups returns the file groups with at least two members.
func (idx *Index) FileGroups() []types.Group {
	return idx.fileGroups
}

// DirGroups returns the directory groups with at least two members.
func (idx *Index) DirGroups() []types.Group {
	return idx.dirGroups
}

// Errors returns the files that could not be hashed.
func (idx *Index) Errors() []types.ScanError {
	return idx.errors
}
