package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/planner"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

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

func p(root string, rel ...string) string {
	return filepath.Join(append([]string{root}, rel...)...)
}

// recorder captures observer events.
type recorder struct {
	NopObserver
	stages  []Stage
	found   []types.Group
	skipped []SkipReason
	removed []string
}

func (r *recorder) StageChanged(s Stage)               { r.stages = append(r.stages, s) }
func (r *recorder) GroupFound(g types.Group, _, _ int) { r.found = append(r.found, g) }
func (r *recorder) GroupSkipped(_ types.Group, s SkipReason, _ error) {
	r.skipped = append(r.skipped, s)
}
func (r *recorder) Removed(res remover.Result) { r.removed = append(r.removed, res.Path) }

// lines answers prompts with canned responses.
type lines []string

func (l *lines) ReadLine(string) (string, error) {
	if len(*l) == 0 {
		return "", io.EOF
	}
	line := (*l)[0]
	*l = (*l)[1:]
	return line, nil
}

// cancelSelector cancels the run on its first call.
type cancelSelector struct {
	cancel context.CancelFunc
}

func (c cancelSelector) Select(ctx context.Context, _ types.Group) (planner.Selection, error) {
	c.cancel()
	return planner.Selection{}, ctx.Err()
}

func TestRun_FileExample(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/x.txt": "hi",
		"b/x.txt": "hi",
		"c/y.txt": "bye",
	})

	rec := &recorder{}
	report, err := Run(context.Background(), Options{Root: root, FilesOnly: true, Observer: rec})
	require.NoError(t, err)

	require.Len(t, report.FileGroups, 1)
	assert.Empty(t, report.DirGroups)
	assert.FileExists(t, p(root, "a", "x.txt"))
	assert.NoFileExists(t, p(root, "b", "x.txt"))
	assert.FileExists(t, p(root, "c", "y.txt"))

	require.Len(t, report.Actions, 1)
	assert.Equal(t, p(root, "b", "x.txt"), report.Actions[0].Path)
	assert.Equal(t, "49f68a5c8493ec2c0bf489821c21fc3b", report.Actions[0].Digest)
	assert.Equal(t, 1, report.Summary.Removed)
	assert.Equal(t, int64(2), report.Summary.BytesFreed)
	assert.Equal(t, int64(3), report.Summary.FilesScanned)

	assert.Equal(t, []Stage{StageScanning, StageDedupPlanning, StageFileRemoval, StageDone}, rec.stages)
	assert.Equal(t, []string{p(root, "b", "x.txt")}, rec.removed)
}

func TestRun_DirExample(t *testing.T) {
	root := buildTree(t, map[string]string{
		"d1/f.txt": "A",
		"d2/f.txt": "A",
	})

	rec := &recorder{}
	report, err := Run(context.Background(), Options{Root: root, Observer: rec})
	require.NoError(t, err)

	require.Len(t, report.DirGroups, 1)
	assert.DirExists(t, p(root, "d1"))
	assert.FileExists(t, p(root, "d1", "f.txt"))
	assert.NoDirExists(t, p(root, "d2"))

	// The file group {d1/f.txt, d2/f.txt} is left with one live member.
	require.Len(t, report.Actions, 1)
	assert.Equal(t, types.KindDir, report.Actions[0].Kind)
	assert.Equal(t, []SkipReason{SkipStale}, rec.skipped)
	assert.Equal(t, []Stage{StageScanning, StageDedupPlanning, StageDirRemoval, StageFileRemoval, StageDone}, rec.stages)
}

func TestRun_DirRemovalRefiltersFileGroups(t *testing.T) {
	root := buildTree(t, map[string]string{
		"d1/f.txt":    "A",
		"d2/f.txt":    "A",
		"loose/f.txt": "A",
		"loose/g.txt": "G",
	})

	report, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.NoDirExists(t, p(root, "d2"))
	assert.FileExists(t, p(root, "d1", "f.txt"))
	assert.NoFileExists(t, p(root, "loose", "f.txt"))
	assert.FileExists(t, p(root, "loose", "g.txt"))

	var paths []string
	for _, a := range report.Actions {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{p(root, "d2"), p(root, "loose", "f.txt")}, paths)
}

func TestRun_DryRunMatchesRealPlan(t *testing.T) {
	root := buildTree(t, map[string]string{
		"d1/f.txt":    "A",
		"d2/f.txt":    "A",
		"loose/f.txt": "A",
	})

	dry := &remover.DryRunDeleter{}
	report, err := Run(context.Background(), Options{Root: root, Deleter: dry, DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, []string{"rmall:" + p(root, "d2"), "rm:" + p(root, "loose", "f.txt")}, dry.Calls())
	assert.DirExists(t, p(root, "d2"))
	assert.FileExists(t, p(root, "loose", "f.txt"))
}

func TestRun_AutoKeepsFirstOfEveryGroup(t *testing.T) {
	root := buildTree(t, map[string]string{
		"1/a": "x", "2/a": "x", "3/b": "x",
		"1/c": "y", "4/c": "y",
	})

	report, err := Run(context.Background(), Options{Root: root, FilesOnly: true})
	require.NoError(t, err)

	for _, g := range report.FileGroups {
		assert.FileExists(t, g.Members[0])
		for _, m := range g.Members[1:] {
			assert.NoFileExists(t, m)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	root := buildTree(t, map[string]string{
		"d1/f.txt": "A",
		"d2/f.txt": "A",
		"a/x.txt":  "hi",
		"b/x.txt":  "hi",
		"c/y.txt":  "bye",
	})

	first, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Actions)

	second, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.True(t, second.NothingFound())
	assert.Empty(t, second.Actions)
}

func TestRun_MalformedInputSkipsOnlyThatGroup(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/1": "one", "b/1": "one",
		"a/2": "two", "b/2": "two",
		"a/3": "three", "b/3": "three",
	})

	answers := lines{"2", "what", "all"}
	rec := &recorder{}
	report, err := Run(context.Background(), Options{
		Root:      root,
		FilesOnly: true,
		Selector:  planner.NewPrompt(&answers),
		Observer:  rec,
	})
	require.NoError(t, err)

	require.Len(t, report.FileGroups, 3)
	assert.Len(t, rec.found, 3)
	assert.Equal(t, []SkipReason{SkipInvalidInput}, rec.skipped)
	assert.Equal(t, 2, report.Summary.Removed)
	assert.FileExists(t, p(root, "b", "2"))
	assert.NoFileExists(t, p(root, "b", "1"))
	assert.NoFileExists(t, p(root, "b", "3"))
}

func TestRun_KeptDirInsideRemovedDirIsRejected(t *testing.T) {
	root := buildTree(t, map[string]string{
		"p/f.txt":   "A",
		"p/q/f.txt": "A",
	})

	// Removing p would take the kept p/q with it.
	answers := lines{"1"}
	report, err := Run(context.Background(), Options{
		Root:     root,
		Selector: planner.NewPrompt(&answers),
	})
	require.NoError(t, err)

	require.Len(t, report.DirGroups, 1)
	assert.Equal(t, []string{p(root, "p"), p(root, "p", "q")}, report.DirGroups[0].Members)
	assert.Empty(t, report.Actions)
	require.NotEmpty(t, report.Skipped)
	assert.Equal(t, SkipInvalidInput, report.Skipped[0].Reason)
	assert.Contains(t, report.Skipped[0].Error, "kept copy")
	assert.FileExists(t, p(root, "p", "f.txt"))
	assert.FileExists(t, p(root, "p", "q", "f.txt"))
}

func TestRun_DirKeptEarlierIsNotRemovedWithAncestor(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/p.txt":   "P",
		"b/q.txt":   "Q",
		"c/q.txt":   "Q",
		"c/x/p.txt": "P",
	})

	// The first group keeps c/x. Removing c for the second group would
	// delete the last copy of P.
	answers := lines{"1", "all"}
	report, err := Run(context.Background(), Options{
		Root:     root,
		Selector: planner.NewPrompt(&answers),
	})
	require.NoError(t, err)

	require.Len(t, report.DirGroups, 2)
	assert.Equal(t, []string{p(root, "a"), p(root, "c", "x")}, report.DirGroups[0].Members)
	assert.Equal(t, []string{p(root, "b"), p(root, "c")}, report.DirGroups[1].Members)

	assert.NoDirExists(t, p(root, "a"))
	assert.FileExists(t, p(root, "c", "x", "p.txt"))
	assert.FileExists(t, p(root, "c", "q.txt"))
	assert.FileExists(t, p(root, "b", "q.txt"))

	require.Len(t, report.Actions, 1)
	assert.Equal(t, p(root, "a"), report.Actions[0].Path)
	require.NotEmpty(t, report.Skipped)
	assert.Equal(t, SkipDeclined, report.Skipped[0].Reason)
	assert.Equal(t, []string{p(root, "b"), p(root, "c")}, report.Skipped[0].Group.Members)
}

func TestRun_DeclinedGroupProtectsItsMembers(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/p.txt":   "P",
		"b/q.txt":   "Q",
		"c/q.txt":   "Q",
		"c/x/p.txt": "P",
	})

	answers := lines{"none", "2"}
	report, err := Run(context.Background(), Options{
		Root:     root,
		Selector: planner.NewPrompt(&answers),
	})
	require.NoError(t, err)

	assert.Empty(t, report.Actions)
	require.GreaterOrEqual(t, len(report.Skipped), 2)
	assert.Equal(t, SkipDeclined, report.Skipped[0].Reason)
	assert.Equal(t, SkipInvalidInput, report.Skipped[1].Reason)
	assert.DirExists(t, p(root, "c"))
	assert.FileExists(t, p(root, "c", "x", "p.txt"))
}

func TestRun_PromptNoneAndClosedInput(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/1": "one", "b/1": "one",
		"a/2": "two", "b/2": "two",
	})

	answers := lines{"none"}
	report, err := Run(context.Background(), Options{
		Root:      root,
		FilesOnly: true,
		Selector:  planner.NewPrompt(&answers),
	})
	require.NoError(t, err)

	assert.Empty(t, report.Actions)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, SkipDeclined, report.Skipped[0].Reason)
	assert.Equal(t, SkipSelectorFailed, report.Skipped[1].Reason)
	assert.NotEmpty(t, report.Skipped[1].Error)
}

func TestRun_VanishedMemberDropped(t *testing.T) {
	root := buildTree(t, map[string]string{"a": "x", "b": "x"})

	report, err := Run(context.Background(), Options{
		Root:   root,
		Exists: func(path string) bool { return path != p(root, "b") },
	})
	require.NoError(t, err)

	assert.Empty(t, report.Actions)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, SkipStale, report.Skipped[0].Reason)
}

func TestRun_NothingFound(t *testing.T) {
	root := buildTree(t, map[string]string{"a": "1", "b": "2"})

	rec := &recorder{}
	report, err := Run(context.Background(), Options{Root: root, Observer: rec})
	require.NoError(t, err)

	assert.True(t, report.NothingFound())
	assert.Equal(t, []Stage{StageScanning, StageDedupPlanning, StageDone}, rec.stages)
	assert.Positive(t, report.Duration)
}

func TestRun_Interrupted(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/1": "one", "b/1": "one",
		"a/2": "two", "b/2": "two",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report, err := Run(ctx, Options{Root: root, FilesOnly: true, Selector: cancelSelector{cancel: cancel}})
	require.NoError(t, err)

	assert.True(t, report.Interrupted)
	assert.Empty(t, report.Actions)
	assert.FileExists(t, p(root, "b", "1"))
	assert.FileExists(t, p(root, "b", "2"))
}

func TestRun_InvalidRoot(t *testing.T) {
	dir := t.TempDir()
	file := p(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name string
		root string
		is   error
	}{
		{"missing", p(dir, "missing"), os.ErrNotExist},
		{"file", file, ErrNotDirectory},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Run(context.Background(), Options{Root: tt.root})
			assert.Nil(t, report)
			require.Error(t, err)
			assert.True(t, IsPrecondition(err))

			var pe *PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.root, pe.Root)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "scanning", StageScanning.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
