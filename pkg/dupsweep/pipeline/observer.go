package pipeline

import (
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// SkipReason explains why a group produced no removals.
type SkipReason string

const (
	// SkipStale means fewer than two members were left after earlier
	// removals and vanished paths were dropped.
	SkipStale SkipReason = "no additional duplicates"
	// SkipDeclined means the selection removed nothing.
	SkipDeclined SkipReason = "declined"
	// SkipInvalidInput means the selection could not be parsed.
	SkipInvalidInput SkipReason = "invalid selection"
	// SkipSelectorFailed means the selector could not produce an answer,
	// for example because input was closed.
	SkipSelectorFailed SkipReason = "no selection"
)

// Observer receives events as a run progresses. Calls happen on the
// goroutine running Run.
type Observer interface {
	// StageChanged is called when a stage starts.
	StageChanged(stage Stage)

	// Progress is called while files are hashed.
	Progress(p types.Progress)

	// GroupFound is called with a live group before its selection is
	// resolved. index is 1-based within the current stage.
	GroupFound(g types.Group, index, total int)

	// GroupSkipped is called when a group produces no removals. err is set
	// for SkipInvalidInput and SkipSelectorFailed.
	GroupSkipped(g types.Group, reason SkipReason, err error)

	// Removed is called for every attempted removal.
	Removed(res remover.Result)
}

// NopObserver ignores every event. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) StageChanged(Stage)                          {}
func (NopObserver) Progress(types.Progress)                     {}
func (NopObserver) GroupFound(types.Group, int, int)            {}
func (NopObserver) GroupSkipped(types.Group, SkipReason, error) {}
func (NopObserver) Removed(remover.Result)                      {}
