package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// rotatedStamp is the timestamp layout inserted into rotated file names.
const rotatedStamp = "2006-01-02-150405"

// RotationConfig configures log file rotation behavior.
type RotationConfig struct {
	// MaxSize is the maximum size in bytes before rotation.
	// Zero uses the default of 10 MiB.
	MaxSize int64

	// MaxAge is the number of days to retain rotated files. Zero keeps them.
	MaxAge int

	// MaxBackups is the number of rotated files to keep. Zero keeps all.
	MaxBackups int

	// Daily rotates the file when the calendar day changes.
	Daily bool
}

// DefaultRotationConfig returns sensible defaults for rotation.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     30,
		MaxBackups: 5,
		Daily:      true,
	}
}

// RotatingWriter is an io.WriteCloser that rotates its file by size and,
// optionally, by day. It is safe for concurrent use.
type RotatingWriter struct {
	path   string
	cfg    RotationConfig
	mu     sync.Mutex
	file   *os.File
	size   int64
	opened time.Time
}

// NewRotatingWriter opens path for appending, creating parent directories.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()

	return w, nil
}

// Write appends p, rotating first when p would overflow MaxSize or the
// day has changed.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if w.needsRotation(int64(len(p))) {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing to log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil

	if syncErr != nil {
		return fmt.Errorf("syncing log file: %w", syncErr)
	}
	return closeErr
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = file
	w.size = info.Size()
	w.opened = info.ModTime()
	return nil
}

func (w *RotatingWriter) needsRotation(incoming int64) bool {
	if w.size > 0 && w.size+incoming > w.cfg.MaxSize {
		return true
	}
	if !w.cfg.Daily {
		return false
	}
	now := time.Now()
	return now.YearDay() != w.opened.YearDay() || now.Year() != w.opened.Year()
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing current file: %w", err)
	}
	w.file = nil

	if err := os.Rename(w.path, w.rotatedName(time.Now())); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("renaming log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}
	w.opened = time.Now()
	w.prune()
	return nil
}

// rotatedName returns base.<stamp>.ext, adding a counter on collision.
func (w *RotatingWriter) rotatedName(at time.Time) string {
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	name := fmt.Sprintf("%s.%s%s", base, at.Format(rotatedStamp), ext)

	for i := 1; ; i++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.%s-%d%s", base, at.Format(rotatedStamp), i, ext)
	}
}

// prune removes rotated files beyond MaxBackups or older than MaxAge.
func (w *RotatingWriter) prune() {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type rotated struct {
		path    string
		modTime time.Time
	}
	var files []rotated
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, rotated{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	maxAge := time.Duration(w.cfg.MaxAge) * 24 * time.Hour
	for i, f := range files {
		tooMany := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		tooOld := w.cfg.MaxAge > 0 && time.Since(f.modTime) > maxAge
		if tooMany || tooOld {
			_ = os.Remove(f.path)
		}
	}
}
