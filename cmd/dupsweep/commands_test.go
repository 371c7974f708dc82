package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/cache"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/manifest"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDryRunAutoJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "x.txt"), "hello")
	writeFile(t, filepath.Join(root, "b", "x.txt"), "hello")
	writeFile(t, filepath.Join(root, "c.txt"), "data")
	writeFile(t, filepath.Join(root, "d.txt"), "data")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"-y", "-d", "-q", "-o", "json", root})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		_ = logging.Close()
	})

	require.NoError(t, rootCmd.Execute())

	var doc struct {
		Meta struct {
			DryRun bool `json:"dry_run"`
		} `json:"meta"`
		Summary struct {
			Removed   int `json:"removed"`
			DirGroups int `json:"dir_groups"`
		} `json:"summary"`
		Actions []struct {
			Path   string `json:"path"`
			Status string `json:"status"`
		} `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	assert.True(t, doc.Meta.DryRun)
	assert.Equal(t, 1, doc.Summary.DirGroups)
	assert.Equal(t, 2, doc.Summary.Removed)
	require.Len(t, doc.Actions, 2)
	assert.Equal(t, filepath.Join(root, "b"), doc.Actions[0].Path)
	assert.Equal(t, filepath.Join(root, "d.txt"), doc.Actions[1].Path)
	assert.Equal(t, "would-remove", doc.Actions[0].Status)

	for _, p := range []string{"a/x.txt", "b/x.txt", "c.txt", "d.txt"} {
		assert.FileExists(t, filepath.Join(root, p), "dry run must not delete")
	}
}

func TestRemovedPaths(t *testing.T) {
	report := &pipeline.Report{Actions: []pipeline.Action{
		{Path: "/a"},
		{Path: "/b", Error: "busy"},
		{Path: "/d", Kind: types.KindDir},
	}}
	assert.Equal(t, []string{"/a", "/d"}, removedPaths(report))

	report.DryRun = true
	assert.Empty(t, removedPaths(report))
	assert.Empty(t, removedPaths(nil))
}

func TestOpenDigesterForgetsRemovedPaths(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.txt")
	gone := filepath.Join(dir, "gone.txt")
	writeFile(t, kept, "same")
	writeFile(t, gone, "same")

	cfg := &config.Config{Cache: config.CacheConfig{Enabled: true, Path: filepath.Join(dir, "cache")}}
	digester, closeDigester := openDigester(cfg, 4096)
	for _, p := range []string{kept, gone} {
		_, err := digester.Sum(p)
		require.NoError(t, err)
	}
	closeDigester(&pipeline.Report{Actions: []pipeline.Action{{Path: gone, Kind: types.KindFile}}})

	c, err := cache.Open(cfg.Cache.Path)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildDeleter(t *testing.T) {
	assert.IsType(t, &remover.DryRunDeleter{}, buildDeleter(true))
	assert.IsType(t, remover.OSDeleter{}, buildDeleter(false))
}

func TestExitError(t *testing.T) {
	silent := &exitError{code: exitInterrupted}
	assert.Equal(t, "exit status 130", silent.Error())
	assert.Nil(t, silent.Unwrap())

	cause := errors.New("boom")
	wrapped := &exitError{code: 2, err: cause}
	assert.Equal(t, "boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestToEffectiveRoundTripsAsYAML(t *testing.T) {
	cfg := &config.Config{
		Exclude:   []string{".git"},
		BlockSize: "1MiB",
		Output:    "json",
	}
	cfg.Cache.Enabled = true
	cfg.Manifest.RetentionDays = 7

	data, err := yaml.Marshal(toEffective(cfg))
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "block_size: 1MiB")
	assert.Contains(t, s, "- .git")
	assert.Contains(t, s, "retention_days: 7")
	assert.NotContains(t, s, "components")
}

func TestWriteHistoryList(t *testing.T) {
	entries := []manifest.Entry{
		{
			ID:        "run-2026-06-15T10-30-00-1b4e28ba",
			Timestamp: time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC),
			Root:      "/data",
			DryRun:    true,
			Summary:   manifest.Summary{Removed: 3, TotalBytes: 2048},
		},
	}

	var buf bytes.Buffer
	writeHistoryList(&buf, entries)

	out := buf.String()
	assert.Contains(t, out, "run-2026-06-15T10-30-00-1b4e28ba*")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "/data")
}

func TestWriteHistoryEntry(t *testing.T) {
	e := &manifest.Entry{
		ID:   "run-x",
		Root: "/data",
		Removed: []manifest.Removal{
			{Path: "/data/b", Kind: types.KindDir, Size: 10},
		},
		Failed: []manifest.Removal{
			{Path: "/data/c", Kind: types.KindFile, Error: "permission denied"},
		},
		Summary: manifest.Summary{Removed: 1, Failed: 1, TotalBytes: 10},
	}

	var buf bytes.Buffer
	writeHistoryEntry(&buf, e)

	out := buf.String()
	assert.Contains(t, out, "/data/b/")
	assert.Contains(t, out, "permission denied")
	assert.NotContains(t, out, "Interrupted")
}

func TestWriteRemovalsLimit(t *testing.T) {
	rs := make([]manifest.Removal, historyShowLimit+5)
	for i := range rs {
		rs[i] = manifest.Removal{Path: "/p", Kind: types.KindFile}
	}

	var buf bytes.Buffer
	writeRemovals(&buf, rs)

	assert.Equal(t, historyShowLimit, strings.Count(buf.String(), "/p"))
	assert.Contains(t, buf.String(), "... and 5 more")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc", truncateString("abcdef", 3))
	assert.Equal(t, "ab...", truncateString("abcdefgh", 5))
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), "12345")
	writeFile(t, filepath.Join(dir, "sub", "b"), "123")

	size, err := dirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}
