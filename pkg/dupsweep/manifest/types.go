// Package manifest keeps an optional on-disk history of dupsweep runs that
// removed something.
package manifest

import (
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// Entry is one recorded run.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Root        string    `json:"root"`
	DryRun      bool      `json:"dry_run"`
	Interrupted bool      `json:"interrupted"`
	Removed     []Removal `json:"removed"`
	Failed      []Removal `json:"failed,omitempty"`
	Summary     Summary   `json:"summary"`
}

// Removal is one path a run removed or tried to remove.
type Removal struct {
	Path   string     `json:"path"`
	Kind   types.Kind `json:"kind"`
	Digest string     `json:"digest"`
	Size   int64      `json:"size"`
	Files  int        `json:"files"`
	Error  string     `json:"error,omitempty"`
}

// Summary totals an entry.
type Summary struct {
	Removed    int   `json:"removed"`
	Files      int   `json:"files"`
	Failed     int   `json:"failed"`
	TotalBytes int64 `json:"total_bytes"`
}
