// Package planner turns duplicate groups into removal plans.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

var logger = logging.Get("planner")

// Removed reports whether a path was already removed in this run.
type Removed interface {
	Contains(path string) bool
}

// Protected reports whether removing a path would take a kept path with
// it.
type Protected interface {
	Protects(path string) bool
}

// Plan is the resolved action for one group.
type Plan struct {
	Group  types.Group
	Mode   Mode
	Keep   []string
	Remove []string
}

// Empty reports whether the plan removes nothing.
func (p Plan) Empty() bool {
	return len(p.Remove) == 0
}

// Planner resolves groups with a Selector.
type Planner struct {
	selector Selector

	// Exists reports whether a path is still on disk. Defaults to an
	// os.Lstat check.
	Exists func(path string) bool
}

// New creates a Planner using sel.
func New(sel Selector) *Planner {
	return &Planner{selector: sel, Exists: exists}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// Prepare drops members already removed or no longer on disk. It returns
// false when fewer than two members remain.
func (p *Planner) Prepare(g types.Group, removed Removed) (types.Group, bool) {
	live := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if removed != nil && removed.Contains(m) {
			continue
		}
		if !p.Exists(m) {
			logger.Debug("dropping vanished member", "path", m)
			continue
		}
		live = append(live, m)
	}

	out := types.Group{Kind: g.Kind, Digest: g.Digest, Members: live}
	return out, out.Actionable()
}

// Resolve asks the selector about g and builds the plan. An *InputError
// or a selector failure leaves the group unplanned; the caller skips it.
func (p *Planner) Resolve(ctx context.Context, g types.Group) (Plan, error) {
	sel, err := p.selector.Select(ctx, g)
	if err != nil {
		return Plan{Group: g}, err
	}
	return Build(g, sel)
}

// Build applies a selection to g. A selection that would remove every
// member, or a member containing a kept one, is rejected with an
// *InputError.
func Build(g types.Group, sel Selection) (Plan, error) {
	plan := Plan{Group: g, Mode: sel.Mode}

	switch sel.Mode {
	case ModeAll:
		if len(g.Members) > 0 {
			plan.Keep = []string{g.Members[0]}
			plan.Remove = append([]string(nil), g.Members[1:]...)
		}
	case ModeSelect:
		chosen := make(map[int]bool, len(sel.Indices))
		for _, i := range sel.Indices {
			chosen[i] = true
		}
		for i, m := range g.Members {
			if chosen[i+1] {
				plan.Remove = append(plan.Remove, m)
			} else {
				plan.Keep = append(plan.Keep, m)
			}
		}
		if len(plan.Keep) == 0 {
			return Plan{Group: g}, &InputError{
				Input:  formatIndices(sel.Indices),
				Reason: "at least one copy must be kept",
			}
		}
	default:
		plan.Keep = append([]string(nil), g.Members...)
	}

	return Guard(plan, nil)
}

// Guard checks plan.Remove against plan.Keep and against the paths kept
// so far in the run. A target that is a kept path or an ancestor of one
// is moved to Keep under ModeAll and rejected with an *InputError under
// ModeSelect. protected may be nil.
func Guard(plan Plan, protected Protected) (Plan, error) {
	var remove, conflicts []string
	for _, target := range plan.Remove {
		if containsAny(target, plan.Keep) || (protected != nil && protected.Protects(target)) {
			conflicts = append(conflicts, target)
			continue
		}
		remove = append(remove, target)
	}
	if len(conflicts) == 0 {
		return plan, nil
	}

	if plan.Mode == ModeSelect {
		return Plan{Group: plan.Group}, &InputError{
			Input:  formatIndices(positions(plan.Group.Members, conflicts)),
			Reason: fmt.Sprintf("removing %s would also remove a kept copy", conflicts[0]),
		}
	}

	for _, c := range conflicts {
		logger.Warn("keeping member that holds a kept copy", "path", c)
	}
	plan.Remove = remove
	plan.Keep = append(append([]string(nil), plan.Keep...), conflicts...)
	return plan, nil
}

// containsAny reports whether target is one of paths or an ancestor of one.
func containsAny(target string, paths []string) bool {
	target = filepath.Clean(target)
	prefix := target
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	for _, p := range paths {
		p = filepath.Clean(p)
		if p == target || strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func positions(members, paths []string) []int {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	var out []int
	for i, m := range members {
		if want[m] {
			out = append(out, i+1)
		}
	}
	return out
}
