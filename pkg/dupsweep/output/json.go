package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// reportDoc is the document shared by the json and yaml formatters.
type reportDoc struct {
	Meta    metaDoc           `json:"meta" yaml:"meta"`
	Summary summaryDoc        `json:"summary" yaml:"summary"`
	Groups  []types.Group     `json:"groups" yaml:"groups"`
	Actions []actionDoc       `json:"actions" yaml:"actions"`
	Skipped []skippedDoc      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Errors  []types.ScanError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type metaDoc struct {
	Root         string    `json:"root" yaml:"root"`
	DryRun       bool      `json:"dry_run" yaml:"dry_run"`
	Interrupted  bool      `json:"interrupted" yaml:"interrupted"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	ScanDuration string    `json:"scan_duration,omitempty" yaml:"scan_duration,omitempty"`
	Duration     string    `json:"duration,omitempty" yaml:"duration,omitempty"`
}

type summaryDoc struct {
	pipeline.Summary `yaml:",inline"`
	BytesFreedHuman  string `json:"bytes_freed_human" yaml:"bytes_freed_human"`
}

type actionDoc struct {
	pipeline.Action `yaml:",inline"`
	SizeHuman       string `json:"size_human" yaml:"size_human"`
	Status          string `json:"status" yaml:"status"`
}

type skippedDoc struct {
	Kind    types.Kind `json:"kind" yaml:"kind"`
	Digest  string     `json:"digest" yaml:"digest"`
	Members []string   `json:"members" yaml:"members"`
	Reason  string     `json:"reason" yaml:"reason"`
	Error   string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// buildDoc converts a report to its machine-readable form. Directory
// groups come first, matching the order they are processed in.
func buildDoc(r *pipeline.Report) reportDoc {
	doc := reportDoc{
		Meta: metaDoc{
			Root:         r.Root,
			DryRun:       r.DryRun,
			Interrupted:  r.Interrupted,
			StartedAt:    r.StartedAt,
			ScanDuration: formatDurationString(r.ScanDuration),
			Duration:     formatDurationString(r.Duration),
		},
		Summary: summaryDoc{
			Summary:         r.Summary,
			BytesFreedHuman: types.FormatSize(r.Summary.BytesFreed),
		},
		Groups:  make([]types.Group, 0, len(r.DirGroups)+len(r.FileGroups)),
		Actions: make([]actionDoc, 0, len(r.Actions)),
		Errors:  r.Errors,
	}

	doc.Groups = append(doc.Groups, r.DirGroups...)
	doc.Groups = append(doc.Groups, r.FileGroups...)

	for _, a := range r.Actions {
		doc.Actions = append(doc.Actions, actionDoc{
			Action:    a,
			SizeHuman: types.FormatSize(a.Size),
			Status:    actionStatus(r, a),
		})
	}

	for _, s := range r.Skipped {
		doc.Skipped = append(doc.Skipped, skippedDoc{
			Kind:    s.Group.Kind,
			Digest:  s.Group.Digest,
			Members: s.Group.Members,
			Reason:  string(s.Reason),
			Error:   s.Error,
		})
	}

	return doc
}

func actionStatus(r *pipeline.Report, a pipeline.Action) string {
	switch {
	case !a.OK():
		return "failed"
	case r.DryRun:
		return "would-remove"
	default:
		return "removed"
	}
}

// JSONFormatter writes the report as one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *pipeline.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDoc(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
