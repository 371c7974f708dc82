// Package config provides configuration management for dupsweep.
package config

// Default configuration values.
const (
	// AppName names the XDG subdirectories and the env prefix.
	AppName = "dupsweep"

	// EnvPrefix prefixes environment overrides, e.g. DUPSWEEP_OUTPUT.
	EnvPrefix = "DUPSWEEP"

	// DefaultBlockSize is the hashing read size.
	DefaultBlockSize = "64KiB"

	// DefaultOutput is the report format.
	DefaultOutput = "pretty"

	// DefaultRetentionDays is how long history entries are kept.
	DefaultRetentionDays = 30

	// DefaultWorkers is the walk concurrency. Zero lets the walker decide.
	DefaultWorkers = 0
)

// DefaultExclusions is empty: every file under the root is considered.
var DefaultExclusions = []string{}
