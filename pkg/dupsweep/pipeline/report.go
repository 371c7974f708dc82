package pipeline

import (
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// Action is one attempted removal.
type Action struct {
	Path   string     `json:"path" yaml:"path"`
	Kind   types.Kind `json:"kind" yaml:"kind"`
	Digest string     `json:"digest" yaml:"digest"`
	Size   int64      `json:"size" yaml:"size"`
	Files  int        `json:"files" yaml:"files"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the removal succeeded.
func (a Action) OK() bool {
	return a.Error == ""
}

// SkippedGroup is a group that produced no removals.
type SkippedGroup struct {
	Group  types.Group `json:"group" yaml:"group"`
	Reason SkipReason  `json:"reason" yaml:"reason"`
	Error  string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary totals a run.
type Summary struct {
	DirsScanned  int64 `json:"dirs_scanned" yaml:"dirs_scanned"`
	FilesScanned int64 `json:"files_scanned" yaml:"files_scanned"`
	BytesScanned int64 `json:"bytes_scanned" yaml:"bytes_scanned"`
	FileGroups   int   `json:"file_groups" yaml:"file_groups"`
	DirGroups    int   `json:"dir_groups" yaml:"dir_groups"`
	Removed      int   `json:"removed" yaml:"removed"`
	FilesRemoved int   `json:"files_removed" yaml:"files_removed"`
	BytesFreed   int64 `json:"bytes_freed" yaml:"bytes_freed"`
	Failed       int   `json:"failed" yaml:"failed"`
	Skipped      int   `json:"skipped" yaml:"skipped"`
	Errors       int   `json:"errors" yaml:"errors"`
}

// Report is the outcome of a run.
type Report struct {
	Root        string    `json:"root" yaml:"root"`
	DryRun      bool      `json:"dry_run" yaml:"dry_run"`
	Interrupted bool      `json:"interrupted" yaml:"interrupted"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`

	// ScanDuration covers walking and hashing.
	ScanDuration time.Duration `json:"scan_duration" yaml:"scan_duration"`

	// Duration covers the whole run, prompts included.
	Duration time.Duration `json:"duration" yaml:"duration"`

	DirGroups  []types.Group     `json:"dir_groups" yaml:"dir_groups"`
	FileGroups []types.Group     `json:"file_groups" yaml:"file_groups"`
	Actions    []Action          `json:"actions" yaml:"actions"`
	Skipped    []SkippedGroup    `json:"skipped" yaml:"skipped"`
	Errors     []types.ScanError `json:"errors" yaml:"errors"`
	Summary    Summary           `json:"summary" yaml:"summary"`
}

// NothingFound reports whether the scan found no duplicate groups.
func (r *Report) NothingFound() bool {
	return len(r.DirGroups) == 0 && len(r.FileGroups) == 0
}

func (r *Report) addResult(res remover.Result, digest string) {
	a := Action{
		Path:   res.Path,
		Kind:   res.Kind,
		Digest: digest,
		Size:   res.Size,
		Files:  res.Files,
	}
	if res.Err != nil {
		a.Error = res.Err.Error()
		r.Summary.Failed++
	} else {
		r.Summary.Removed++
		r.Summary.FilesRemoved += res.Files
		r.Summary.BytesFreed += res.Size
	}
	r.Actions = append(r.Actions, a)
}

func (r *Report) addSkipped(g types.Group, reason SkipReason, err error) {
	s := SkippedGroup{Group: g, Reason: reason}
	if err != nil {
		s.Error = err.Error()
	}
	r.Skipped = append(r.Skipped, s)
	r.Summary.Skipped++
}
