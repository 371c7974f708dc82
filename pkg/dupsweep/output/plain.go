package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// PlainFormatter writes an aligned, uncolored table of actions followed by
// a one-line summary.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *pipeline.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("STATUS\tKIND\tSIZE\tPATH\n")); err != nil {
		return err
	}
	for _, a := range r.Actions {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\n", actionStatus(r, a), a.Kind, types.FormatSize(a.Size), a.Path)
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nscanned %d files in %s; %d dir groups, %d file groups; removed %d (%s), failed %d, skipped %d\n",
		r.Summary.FilesScanned,
		formatDuration(r.ScanDuration),
		r.Summary.DirGroups,
		r.Summary.FileGroups,
		r.Summary.Removed,
		types.FormatSize(r.Summary.BytesFreed),
		r.Summary.Failed,
		r.Summary.Skipped)

	if r.Interrupted {
		w.WriteString("interrupted\n")
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
