// Package pipeline runs a complete duplicate sweep: walk, hash, group,
// then resolve and remove directory groups followed by file groups.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/hasher"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/index"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/planner"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/walker"
)

var logger = logging.Get("pipeline")

// Options configures a run. Zero values select defaults.
type Options struct {
	// Root is the directory to scan.
	Root string

	// Exclude contains paths and glob patterns to skip.
	Exclude []string

	// FilesOnly disables directory grouping.
	FilesOnly bool

	// Workers is the number of walk goroutines. Hashing is sequential.
	Workers int

	// DryRun is recorded in the report. Pair it with a DryRunDeleter.
	DryRun bool

	// Selector resolves each group. Defaults to planner.Auto.
	Selector planner.Selector

	// Deleter performs removals. Defaults to remover.OSDeleter.
	Deleter remover.Deleter

	// Digester hashes files. Defaults to a hasher with 64 KiB blocks.
	Digester index.Digester

	// Observer receives progress events. Defaults to NopObserver.
	Observer Observer

	// Exists overrides the planner's on-disk check, for tests.
	Exists func(path string) bool
}

func (o *Options) applyDefaults() {
	if o.Selector == nil {
		o.Selector = planner.Auto{}
	}
	if o.Deleter == nil {
		o.Deleter = remover.OSDeleter{}
	}
	if o.Digester == nil {
		o.Digester = hasher.New(hasher.Options{})
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
}

// Run executes a sweep. It fails only with a *PreconditionError. If ctx is
// cancelled the run stops between groups and returns a partial report with
// Interrupted set.
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts.applyDefaults()

	root, err := ValidateRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	r := &runner{
		opts:     opts,
		obs:      opts.Observer,
		planner:  planner.New(opts.Selector),
		executor: remover.New(opts.Deleter),
		report: &Report{
			Root:      root,
			DryRun:    opts.DryRun,
			StartedAt: time.Now(),
		},
	}
	if opts.Exists != nil {
		r.planner.Exists = opts.Exists
	}

	r.run(ctx, root)

	r.report.Duration = time.Since(r.report.StartedAt)
	r.report.Summary.Errors = len(r.report.Errors)
	r.obs.StageChanged(StageDone)

	logger.Info("run finished",
		"root", root,
		"removed", r.report.Summary.Removed,
		"failed", r.report.Summary.Failed,
		"skipped", r.report.Summary.Skipped,
		"interrupted", r.report.Interrupted)

	return r.report, nil
}

type runner struct {
	opts     Options
	obs      Observer
	planner  *planner.Planner
	executor *remover.Executor
	report   *Report
	record   remover.Record
}

func (r *runner) run(ctx context.Context, root string) {
	r.obs.StageChanged(StageScanning)

	listing, err := walker.New(walker.Options{
		Root:    root,
		Exclude: r.opts.Exclude,
		Workers: r.opts.Workers,
	}).Walk(ctx)
	if err != nil {
		if ctx.Err() != nil {
			r.interrupt(err)
			return
		}
		logger.Error("walk failed", "root", root, "err", err)
		r.report.Errors = append(r.report.Errors, types.ScanError{Path: root, Error: err.Error()})
		return
	}
	stats := listing.Stats()
	r.report.Summary.DirsScanned = stats.Dirs
	r.report.Summary.FilesScanned = stats.Files
	r.report.Summary.BytesScanned = stats.Bytes
	r.report.Errors = append(r.report.Errors, listing.Errors()...)

	idx, err := index.Build(ctx, listing, r.opts.Digester, index.Options{
		FilesOnly:  r.opts.FilesOnly,
		OnProgress: r.obs.Progress,
	})
	if err != nil {
		r.interrupt(err)
		return
	}
	r.report.ScanDuration = time.Since(r.report.StartedAt)
	r.report.Errors = append(r.report.Errors, idx.Errors()...)

	r.obs.StageChanged(StageDedupPlanning)
	r.report.DirGroups = idx.DirGroups()
	r.report.FileGroups = idx.FileGroups()
	r.report.Summary.DirGroups = len(r.report.DirGroups)
	r.report.Summary.FileGroups = len(r.report.FileGroups)

	// Directories go first so file groups can drop members they removed.
	if len(r.report.DirGroups) > 0 {
		r.obs.StageChanged(StageDirRemoval)
		if !r.process(ctx, r.report.DirGroups) {
			return
		}
	}

	if len(r.report.FileGroups) > 0 {
		r.obs.StageChanged(StageFileRemoval)
		r.process(ctx, r.report.FileGroups)
	}
}

// process resolves and removes each group in order. It returns false if
// the run was interrupted.
func (r *runner) process(ctx context.Context, groups []types.Group) bool {
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			r.interrupt(err)
			return false
		}

		// Members of a group left untouched are kept, so no later group
		// may remove a directory holding one of them.
		live, ok := r.planner.Prepare(g, r.record)
		if !ok {
			r.record = r.record.WithKept(live.Members...)
			r.skip(g, SkipStale, nil)
			continue
		}

		r.obs.GroupFound(live, i+1, len(groups))

		plan, err := r.planner.Resolve(ctx, live)
		if err == nil {
			plan, err = planner.Guard(plan, r.record)
		}
		if err != nil {
			if ctx.Err() != nil {
				r.interrupt(ctx.Err())
				return false
			}
			r.record = r.record.WithKept(live.Members...)
			var inputErr *planner.InputError
			if errors.As(err, &inputErr) {
				r.skip(live, SkipInvalidInput, err)
			} else {
				r.skip(live, SkipSelectorFailed, err)
			}
			continue
		}

		if plan.Empty() {
			r.record = r.record.WithKept(live.Members...)
			r.skip(live, SkipDeclined, nil)
			continue
		}

		var results []remover.Result
		r.record, results = r.executor.Execute(plan, r.record)
		for _, res := range results {
			r.report.addResult(res, live.Digest)
			r.obs.Removed(res)
		}
	}
	return true
}

func (r *runner) skip(g types.Group, reason SkipReason, err error) {
	if err != nil {
		logger.Warn("skipping group", "group", g.String(), "reason", string(reason), "err", err)
	} else {
		logger.Debug("skipping group", "group", g.String(), "reason", string(reason))
	}
	r.report.addSkipped(g, reason, err)
	r.obs.GroupSkipped(g, reason, err)
}

func (r *runner) interrupt(err error) {
	logger.Warn("run interrupted", "err", err)
	r.report.Interrupted = true
}
