// Package walker enumerates a directory tree with fastwalk and replays it
// as an ordered sequence of directories with their immediate files.
package walker

// Options configures a Walker.
type Options struct {
	// Root is the directory to walk. It is resolved to an absolute path.
	Root string

	// Exclude holds paths or glob patterns to skip. A pattern matches a
	// path equal to it, anything below it, or (as a glob) the base name
	// or the full path.
	Exclude []string

	// Workers is the number of fastwalk goroutines. Zero picks a count
	// from the CPU count, see ResolveWorkers.
	Workers int
}
