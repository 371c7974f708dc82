package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// Console prints run events as they happen: stage headers, numbered group
// listings, one line per removal, and skipped groups. It implements
// pipeline.Observer.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
	dryRun bool

	// ShowProgress prints a percentage line while hashing. Leave it off
	// when a progress bar is drawn elsewhere.
	ShowProgress bool
	lastPercent  int
}

// NewConsole writes events to w. With styled set, lipgloss styles are
// applied.
func NewConsole(w io.Writer, styled, dryRun bool) *Console {
	return &Console{w: w, styled: styled, dryRun: dryRun, lastPercent: -1}
}

func (c *Console) render(style interface{ Render(...string) string }, s string) string {
	if !c.styled {
		return s
	}
	return style.Render(s)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, format, args...); err != nil {
		logger.Debug("console write failed", "err", err)
	}
}

// StageChanged prints a header for stages that do visible work.
func (c *Console) StageChanged(stage pipeline.Stage) {
	switch stage {
	case pipeline.StageScanning:
		c.printf("%s\n", c.render(TitleStyle, "Searching for duplicates..."))
	case pipeline.StageDirRemoval:
		c.printf("\n%s\n", c.render(TitleStyle, "Duplicate directories"))
	case pipeline.StageFileRemoval:
		c.printf("\n%s\n", c.render(TitleStyle, "Duplicate files"))
	}
}

// Progress prints whole-percent steps when ShowProgress is set.
func (c *Console) Progress(p types.Progress) {
	if !c.ShowProgress || p.Total == 0 {
		return
	}
	pct := int(p.Percent() * 100)
	if pct == c.lastPercent {
		return
	}
	c.lastPercent = pct

	c.printf("\rhashing %3d%% (%d/%d)", pct, p.Done, p.Total)
	if p.Done >= p.Total {
		c.printf("\n")
	}
}

// GroupFound lists the members of g with 1-based indices.
func (c *Console) GroupFound(g types.Group, index, total int) {
	title := fmt.Sprintf("[%d/%d] %s %s", index, total, g.Kind, g.Digest)
	c.printf("\n%s\n", c.render(LabelStyle, title))
	for i, m := range g.Members {
		path := m
		if g.Kind == types.KindDir {
			path += "/"
		}
		idx := fmt.Sprintf("%d.", i+1)
		if c.styled {
			idx = IndexStyle.Render(idx)
		}
		c.printf("%s %s\n", idx, path)
	}
}

// GroupSkipped explains why a group produced no removals.
func (c *Console) GroupSkipped(g types.Group, reason pipeline.SkipReason, err error) {
	switch reason {
	case pipeline.SkipStale:
		c.printf("%s\n", c.render(MutedStyle, fmt.Sprintf("%s: no additional duplicates", g)))
	case pipeline.SkipDeclined:
		c.printf("%s\n", c.render(MutedStyle, "skipped"))
	default:
		c.printf("%s\n", c.render(WarningStyle, fmt.Sprintf("skipping group: %v", err)))
	}
}

// Removed prints a confirmation or an error for one removal.
func (c *Console) Removed(res remover.Result) {
	if !res.OK() {
		c.printf("%s\n", c.render(ErrorStyle, fmt.Sprintf("error removing %s: %v", res.Path, res.Err)))
		return
	}

	verb := "removed"
	if c.dryRun {
		verb = "would remove"
	}
	what := res.Path
	if res.Kind == types.KindDir {
		what = fmt.Sprintf("%s/ (%d files)", res.Path, res.Files)
	}
	c.printf("%s %s %s\n", c.render(SuccessStyle, verb), what, c.render(MutedStyle, types.FormatSize(res.Size)))
}

var _ pipeline.Observer = (*Console)(nil)
