// Package remover executes removal plans and tracks what a run has removed.
package remover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/planner"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/walker"
)

var logger = logging.Get("remover")

// ErrKeptCopy is returned for a removal that would take a kept path with it.
var ErrKeptCopy = errors.New("would also remove a kept copy")

// RemovalError reports a path that could not be removed.
type RemovalError struct {
	Path string
	Err  error
}

func (e *RemovalError) Error() string {
	cause := e.Err
	var pe *fs.PathError
	if errors.As(cause, &pe) && pe.Path == e.Path {
		cause = pe.Err
	}
	return fmt.Sprintf("cannot remove %s: %v", e.Path, cause)
}

func (e *RemovalError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one planned removal.
type Result struct {
	Path string
	Kind types.Kind

	// Size is the number of bytes freed.
	Size int64

	// Files is the number of regular files removed.
	Files int

	// Err is a *RemovalError when the removal failed.
	Err error
}

// OK reports whether the removal succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Executor applies plans with a Deleter.
type Executor struct {
	deleter Deleter
}

// New returns an Executor using d.
func New(d Deleter) *Executor {
	return &Executor{deleter: d}
}

// Execute removes every path in plan.Remove and returns the updated record
// with one Result per path. Only plan.Remove is touched. A failure is
// reported in its Result and does not stop the remaining removals.
//
// plan.Keep is added to the record's kept set first. A target that is a
// kept path, or contains one, fails with ErrKeptCopy and is not touched.
func (e *Executor) Execute(plan planner.Plan, record Record) (Record, []Result) {
	results := make([]Result, 0, len(plan.Remove))
	record = record.WithKept(plan.Keep...)

	for _, path := range plan.Remove {
		var res Result
		switch {
		case record.Protects(path):
			res = Result{Path: path, Kind: plan.Group.Kind, Err: &RemovalError{Path: path, Err: ErrKeptCopy}}
			logger.Warn("refusing to remove kept copy", "path", path)
		case plan.Group.Kind == types.KindDir:
			res, record = e.removeDir(path, record)
		default:
			res, record = e.removeFile(path, record)
		}
		results = append(results, res)
	}

	return record, results
}

func (e *Executor) removeFile(path string, record Record) (Result, Record) {
	res := Result{Path: path, Kind: types.KindFile}

	if info, err := os.Lstat(path); err == nil {
		res.Size = info.Size()
	}

	if err := e.deleter.Remove(path); err != nil {
		res.Err = &RemovalError{Path: path, Err: err}
		logger.Warn("file removal failed", "path", path, "err", err)
		return res, record
	}

	res.Files = 1
	logger.Info("removed file", "path", path, "size", res.Size)
	return res, record.With(path)
}

func (e *Executor) removeDir(path string, record Record) (Result, Record) {
	res := Result{Path: path, Kind: types.KindDir}

	files, err := walker.ContainedFiles(path)
	if err != nil {
		logger.Warn("incomplete listing before removal", "path", path, "err", err)
	}
	for _, f := range files {
		if info, err := os.Lstat(f); err == nil {
			res.Size += info.Size()
		}
	}

	if err := e.deleter.RemoveAll(path); err != nil {
		res.Err = &RemovalError{Path: path, Err: err}
		logger.Warn("directory removal failed", "path", path, "err", err)
		return res, record
	}

	res.Files = len(files)
	logger.Info("removed directory", "path", path, "files", res.Files, "size", res.Size)
	return res, record.WithDir(path, files)
}

// IsRemovalError reports whether err is a *RemovalError.
func IsRemovalError(err error) bool {
	var re *RemovalError
	return errors.As(err, &re)
}
