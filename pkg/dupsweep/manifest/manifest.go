package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
)

var logger = logging.Get("manifest")

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("entry not found")

// Manifest stores entries as JSON files in one directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest in dir. The directory is created on first write.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the manifest directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// FromReport builds an entry from a finished run. It returns nil when the
// run attempted no removals.
func FromReport(r *pipeline.Report) *Entry {
	if len(r.Actions) == 0 {
		return nil
	}

	e := &Entry{
		Root:        r.Root,
		DryRun:      r.DryRun,
		Interrupted: r.Interrupted,
	}
	for _, a := range r.Actions {
		rec := Removal{
			Path:   a.Path,
			Kind:   a.Kind,
			Digest: a.Digest,
			Size:   a.Size,
			Files:  a.Files,
			Error:  a.Error,
		}
		if !a.OK() {
			e.Failed = append(e.Failed, rec)
			e.Summary.Failed++
			continue
		}
		e.Removed = append(e.Removed, rec)
		e.Summary.Removed++
		e.Summary.Files += a.Files
		e.Summary.TotalBytes += a.Size
	}
	return e
}

// Log assigns an ID and timestamp to e and writes it.
func (m *Manifest) Log(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.Timestamp = time.Now().UTC()
	e.ID = generateID(e.Timestamp)

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := m.writeEntry(e); err != nil {
		return fmt.Errorf("failed to write manifest entry: %w", err)
	}

	logger.Debug("manifest entry written", "id", e.ID, "removed", e.Summary.Removed)
	return nil
}

// writeEntry writes e atomically through a temp file.
func (m *Manifest) writeEntry(e *Entry) error {
	path := filepath.Join(m.dir, e.ID+".json")

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of 0 or less returns all.
// Unparseable files are skipped.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID. A unique ID prefix is accepted.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		switch {
		case entries[i].ID == id:
			return &entries[i], nil
		case strings.HasPrefix(entries[i].ID, id):
			if match != nil {
				return nil, fmt.Errorf("ambiguous entry ID %q", id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

func (m *Manifest) readAll() ([]Entry, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		e, err := m.readEntryFile(f.Name())
		if err != nil {
			logger.Debug("skipping manifest file", "file", f.Name(), "err", err)
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (m *Manifest) readEntryFile(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

// Cleanup removes entries recorded more than retentionDays ago and returns
// how many were removed. A retention of 0 or less keeps everything.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.ID+".json")); err != nil {
			logger.Warn("cannot remove manifest entry", "id", e.ID, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// generateID creates an ID like "run-2026-06-15T10-30-00-1b4e28ba".
func generateID(ts time.Time) string {
	return fmt.Sprintf("run-%s-%s", ts.Format("2006-01-02T15-04-05"), uuid.NewString()[:8])
}
