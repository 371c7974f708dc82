package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree creates files (relative path -> content) under a temp root.
func buildTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func collect(l *Listing) []Dir {
	var dirs []Dir
	for d := range l.Dirs() {
		dirs = append(dirs, d)
	}
	return dirs
}

func rel(t *testing.T, root, path string) string {
	t.Helper()
	r, err := filepath.Rel(root, path)
	require.NoError(t, err)
	return filepath.ToSlash(r)
}

func TestWalk_DepthFirstOrder(t *testing.T) {
	root := buildTree(t, map[string]string{
		"top.txt":       "t",
		"b/x.txt":       "x",
		"a/z.txt":       "z",
		"a/y.txt":       "y",
		"a/deep/w.txt":  "w",
		"c/empty/.keep": "",
	})

	listing, err := New(Options{Root: root}).Walk(context.Background())
	require.NoError(t, err)

	var order []string
	for _, d := range collect(listing) {
		order = append(order, rel(t, root, d.Path))
	}
	assert.Equal(t, []string{".", "a", "a/deep", "b", "c", "c/empty"}, order)

	dirs := collect(listing)
	require.Len(t, dirs[1].Files, 2)
	assert.Equal(t, "y.txt", dirs[1].Files[0].Name)
	assert.Equal(t, "z.txt", dirs[1].Files[1].Name)
	assert.Equal(t, filepath.Join(root, "a", "y.txt"), dirs[1].Files[0].Path)
	assert.Equal(t, []string{filepath.Join(root, "a", "deep")}, dirs[1].Subdirs)

	stats := listing.Stats()
	assert.Equal(t, int64(6), stats.Dirs)
	assert.Equal(t, int64(6), stats.Files)
	assert.Equal(t, int64(5), stats.Bytes)
	assert.Empty(t, listing.Errors())
}

func TestWalk_OrderIsStable(t *testing.T) {
	root := buildTree(t, map[string]string{
		"m/1": "1", "k/2": "2", "z/3": "3", "a/b/c/4": "4",
	})

	first, err := New(Options{Root: root}).Walk(context.Background())
	require.NoError(t, err)
	second, err := New(Options{Root: root, Workers: 1}).Walk(context.Background())
	require.NoError(t, err)

	assert.Equal(t, collect(first), collect(second))
}

func TestWalk_RelativeRootIsResolved(t *testing.T) {
	root := buildTree(t, map[string]string{"f.txt": "f"})
	t.Chdir(root)

	listing, err := New(Options{Root: "."}).Walk(context.Background())
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(listing.Root()))

	dirs := collect(listing)
	require.Len(t, dirs, 1)
	require.Len(t, dirs[0].Files, 1)
	assert.True(t, filepath.IsAbs(dirs[0].Files[0].Path))
}

func TestWalk_Exclude(t *testing.T) {
	root := buildTree(t, map[string]string{
		"keep/a.txt":     "a",
		"skip/b.txt":     "b",
		"keep/c.tmp":     "c",
		"node_modules/d": "d",
	})

	listing, err := New(Options{
		Root:    root,
		Exclude: []string{filepath.Join(root, "skip"), "*.tmp", "node_modules"},
	}).Walk(context.Background())
	require.NoError(t, err)

	var files []string
	for d := range listing.Dirs() {
		for _, f := range d.Files {
			files = append(files, rel(t, root, f.Path))
		}
	}
	assert.Equal(t, []string{"keep/a.txt"}, files)
}

func TestWalk_ExcludeRelativeToWorkingDir(t *testing.T) {
	root := buildTree(t, map[string]string{
		"keep/a.txt":  "a",
		"build/b.txt": "b",
		"keep/c.o":    "c",
		"other/c.o":   "c",
	})
	t.Chdir(root)

	listing, err := New(Options{
		Root:    ".",
		Exclude: []string{"./build", "keep/*.o"},
	}).Walk(context.Background())
	require.NoError(t, err)

	var files []string
	for d := range listing.Dirs() {
		for _, f := range d.Files {
			files = append(files, rel(t, root, f.Path))
		}
	}
	assert.ElementsMatch(t, []string{"keep/a.txt", "other/c.o"}, files)
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	root := buildTree(t, map[string]string{"real/f.txt": "f"})
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "f.txt"), filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")))

	listing, err := New(Options{Root: root}).Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), listing.Stats().Files)
}

func TestWalk_UnreadableDirIsReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	root := buildTree(t, map[string]string{"ok/a.txt": "a", "locked/b.txt": "b"})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	listing, err := New(Options{Root: root}).Walk(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, listing.Errors())
	assert.Equal(t, int64(1), listing.Stats().Files)
}

func TestWalk_Cancelled(t *testing.T) {
	root := buildTree(t, map[string]string{"a/b": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Root: root}).Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirs_StopsEarly(t *testing.T) {
	root := buildTree(t, map[string]string{"a/1": "1", "b/2": "2", "c/3": "3"})
	listing, err := New(Options{Root: root}).Walk(context.Background())
	require.NoError(t, err)

	seen := 0
	for range listing.Dirs() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestContainedFiles(t *testing.T) {
	root := buildTree(t, map[string]string{
		"d/a.txt":     "a",
		"d/sub/b.txt": "b",
		"other/c.txt": "c",
	})

	files, err := ContainedFiles(filepath.Join(root, "d"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "d", "a.txt"),
		filepath.Join(root, "d", "sub", "b.txt"),
	}, files)
}

func TestExcluder(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"/a/b", "/a/b", true},
		{"/a/b/c", "/a/b", true},
		{"/a/b/c", "/a/b/", true},
		{"/a/bc", "/a/b", false},
		{"/a/x.log", "*.log", true},
		{"/a/x.txt", "*.log", false},
		{"/a/x", "", false},
		{"/a/b/c", "/a/*/c", true},
		{"/a/b/c/d.tmp", "/a/**.tmp", true},
		{"/a/.git", ".git", true},
	}

	for _, tt := range tests {
		e := newExcluder([]string{tt.pattern})
		assert.Equal(t, tt.want, e.match(tt.path), "%s vs %s", tt.path, tt.pattern)
	}
}
