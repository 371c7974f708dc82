package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLogs(t *testing.T, dir, prefix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".log") {
			n++
		}
	}
	return n
}

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "size.log"), logging.RotationConfig{
		MaxSize: 256,
	})
	require.NoError(t, err)

	line := []byte(strings.Repeat("x", 60) + "\n")
	for i := 0; i < 20; i++ {
		_, err := w.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	assert.GreaterOrEqual(t, countLogs(t, dir, "size"), 2)
}

func TestRotationMaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "backups.log"), logging.RotationConfig{
		MaxSize:    64,
		MaxBackups: 2,
	})
	require.NoError(t, err)

	line := []byte(strings.Repeat("y", 60) + "\n")
	for i := 0; i < 10; i++ {
		_, err := w.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Current file plus at most two rotated backups.
	assert.LessOrEqual(t, countLogs(t, dir, "backups"), 3)
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
