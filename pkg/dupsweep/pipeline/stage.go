package pipeline

import "fmt"

// Stage is a step of a run. Stages only move forward.
type Stage int

const (
	// StageScanning walks the tree and hashes files.
	StageScanning Stage = iota
	// StageDedupPlanning groups files and directories.
	StageDedupPlanning
	// StageDirRemoval resolves and removes directory groups.
	StageDirRemoval
	// StageFileRemoval resolves and removes file groups.
	StageFileRemoval
	// StageDone marks the end of the run.
	StageDone
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageDedupPlanning:
		return "dedup-planning"
	case StageDirRemoval:
		return "dir-removal"
	case StageFileRemoval:
		return "file-removal"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}
