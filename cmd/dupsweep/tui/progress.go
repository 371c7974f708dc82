package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

const barWidth = 40

// ProgressBar draws hashing progress on a single terminal line.
type ProgressBar struct {
	mu      sync.Mutex
	w       io.Writer
	bar     progress.Model
	width   int
	active  bool
	lastPct int
}

// NewProgressBar draws on w, usually stderr.
func NewProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{
		w: w,
		bar: progress.New(
			progress.WithGradient(string(primaryColor), string(accentColor)),
			progress.WithWidth(barWidth),
		),
		width:   80,
		lastPct: -1,
	}
}

// Render returns the line for p without writing it.
func (b *ProgressBar) Render(p types.Progress) string {
	counter := progressLabelStyle.Render(fmt.Sprintf("%s/%s",
		humanize.Comma(p.Done), humanize.Comma(p.Total)))
	line := fmt.Sprintf("%s %s", b.bar.ViewAs(p.Percent()), counter)

	room := b.width - barWidth - 24
	if p.CurrentPath != "" && p.Done < p.Total && room > 10 {
		line += " " + progressLabelStyle.Render(truncatePath(p.CurrentPath, room))
	}
	return line
}

// Update redraws the bar when the whole percentage changes and finishes
// the line when hashing is complete.
func (b *ProgressBar) Update(p types.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.Total == 0 {
		return
	}
	pct := int(p.Percent() * 100)
	finished := p.Done >= p.Total
	if pct == b.lastPct && !finished {
		return
	}
	b.lastPct = pct
	b.active = !finished

	// \x1b[K clears what a longer previous line left behind.
	_, _ = fmt.Fprintf(b.w, "\r%s\x1b[K", b.Render(p))
	if finished {
		_, _ = fmt.Fprint(b.w, "\n")
	}
}

// Clear ends a partially drawn bar, e.g. after an interrupt.
func (b *ProgressBar) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		_, _ = fmt.Fprint(b.w, "\n")
		b.active = false
	}
}

// progressObserver forwards every event to the wrapped observer and draws
// hashing progress with a ProgressBar.
type progressObserver struct {
	pipeline.Observer
	bar *ProgressBar
}

// WithProgress wraps obs so hashing progress is drawn as a bar on w.
func WithProgress(obs pipeline.Observer, w io.Writer) pipeline.Observer {
	return &progressObserver{Observer: obs, bar: NewProgressBar(w)}
}

func (o *progressObserver) Progress(p types.Progress) {
	o.bar.Update(p)
	o.Observer.Progress(p)
}

func (o *progressObserver) StageChanged(s pipeline.Stage) {
	if s != pipeline.StageScanning {
		o.bar.Clear()
	}
	o.Observer.StageChanged(s)
}
