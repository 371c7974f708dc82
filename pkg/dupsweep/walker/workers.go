package walker

import "runtime"

// Walk concurrency limits. Directory reads are metadata-bound and benefit
// from parallelism even on small machines.
const (
	minWorkers = 8
	maxWorkers = 64
)

// ResolveWorkers returns the goroutine count for a walk. A positive
// override is used as given (capped at 64); otherwise the count is
// max(NumCPU, 8).
func ResolveWorkers(override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}
	return min(max(runtime.NumCPU(), minWorkers), maxWorkers)
}
