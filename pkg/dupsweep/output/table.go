package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
)

// CSVFormatter writes one RFC 4180 row per action.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *pipeline.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"status", "kind", "size", "digest", "path", "error"}); err != nil {
		return err
	}
	for _, a := range r.Actions {
		row := []string{
			actionStatus(r, a),
			string(a.Kind),
			strconv.FormatInt(a.Size, 10),
			a.Digest,
			a.Path,
			a.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

var _ Formatter = (*CSVFormatter)(nil)

// PathsFormatter writes the path of every successful removal, one per line.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *pipeline.Report) error {
	for _, a := range r.Actions {
		if !a.OK() {
			continue
		}
		w.WriteString(a.Path)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

var _ Formatter = (*PathsFormatter)(nil)
