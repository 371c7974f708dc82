package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// PrettyFormatter writes a styled summary for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *pipeline.Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatActions(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Errors) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatErrors(r.Errors))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *pipeline.Report) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Root:"), ValueStyle.Render(r.Root)))

	scanned := fmt.Sprintf("%d files (%s) in %d dirs, %s",
		r.Summary.FilesScanned,
		types.FormatSize(r.Summary.BytesScanned),
		r.Summary.DirsScanned,
		formatDuration(r.ScanDuration))
	groups := fmt.Sprintf("%d dir, %d file", r.Summary.DirGroups, r.Summary.FileGroups)
	lines = append(lines, fmt.Sprintf("%s %s  %s %s",
		LabelStyle.Render("Scanned:"), ValueStyle.Render(scanned),
		LabelStyle.Render("Groups:"), ValueStyle.Render(groups)))

	if r.DryRun {
		lines = append(lines, WarningStyle.Bold(true).Render("Dry run: nothing was deleted"))
	}
	if r.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Run interrupted by user"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatActions(r *pipeline.Report) string {
	if r.NothingFound() {
		return MutedStyle.Render("  No duplicates found") + "\n"
	}
	if len(r.Actions) == 0 {
		return MutedStyle.Render("  Nothing removed") + "\n"
	}

	sizes := make([]string, len(r.Actions))
	width := 8
	for i, a := range r.Actions {
		sizes[i] = types.FormatSize(a.Size)
		width = max(width, len(sizes[i]))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s\n", TableHeaderStyle.Render(padLeft("SIZE", width)), TableHeaderStyle.Render("PATH"))
	for i, a := range r.Actions {
		path := a.Path
		if a.Kind == types.KindDir {
			path += "/"
		}

		if a.OK() {
			fmt.Fprintf(&sb, "  %s  %s\n", SizeStyle.Render(padLeft(sizes[i], width)), PathStyle.Render(path))
			continue
		}
		fmt.Fprintf(&sb, "  %s  %s %s\n",
			ErrorStyle.Render(padLeft("failed", width)),
			PathStyle.Render(path),
			MutedStyle.Render(a.Error))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *pipeline.Report) string {
	verb := "Removed:"
	if r.DryRun {
		verb = "Would remove:"
	}

	parts := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render(verb), ValueStyle.Render(fmt.Sprintf("%d", r.Summary.Removed))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Freed:"), SizeStyle.Render(types.FormatSize(r.Summary.BytesFreed))),
	}
	if r.Summary.Failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", r.Summary.Failed)))
	}
	if r.Summary.Skipped > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("%d skipped", r.Summary.Skipped)))
	}
	parts = append(parts, MutedStyle.Render(fmt.Sprintf("took %s", formatDuration(r.Duration))))

	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatErrors(errs []types.ScanError) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render(fmt.Sprintf("Unreadable (%d):", len(errs))))
	sb.WriteString("\n")
	for _, e := range errs {
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("  %s: %s", e.Path, e.Error)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// padLeft pads s with spaces on the left to width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
