// Package types provides core data types for the dupsweep duplicate finder.
// It includes the entries produced by a scan, duplicate groups, progress
// snapshots, and helpers for formatting sizes.
package types

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// Kind distinguishes file groups from directory groups.
type Kind string

const (
	// KindFile marks a group of files with identical content.
	KindFile Kind = "file"
	// KindDir marks a group of directories with identical direct files.
	KindDir Kind = "dir"
)

// FileEntry is a hashed regular file discovered during the walk.
type FileEntry struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// Dir is the absolute path of the parent directory.
	Dir string `json:"dir" yaml:"dir"`

	// Digest is the hex content digest.
	Digest string `json:"digest" yaml:"digest"`

	// Size is the file size in bytes at walk time.
	Size int64 `json:"size" yaml:"size"`
}

// NamedDigest pairs a file's base name with its content digest.
type NamedDigest struct {
	Name   string `json:"name" yaml:"name"`
	Digest string `json:"digest" yaml:"digest"`
}

// DirectoryEntry is a directory together with the digests of its
// immediate files. Subdirectories are not part of the entry.
type DirectoryEntry struct {
	// Path is the absolute path to the directory.
	Path string `json:"path" yaml:"path"`

	// Files holds the (name, digest) pairs of direct children, sorted.
	Files []NamedDigest `json:"files" yaml:"files"`

	// Signature is the digest of Files.
	Signature string `json:"signature" yaml:"signature"`

	// Size is the total size of the direct files.
	Size int64 `json:"size" yaml:"size"`
}

// Group is a set of files or directories sharing a digest or signature.
// Members are kept in discovery order.
type Group struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	Digest  string   `json:"digest" yaml:"digest"`
	Members []string `json:"members" yaml:"members"`
}

// Actionable reports whether the group has at least two members.
func (g Group) Actionable() bool {
	return len(g.Members) >= 2
}

// String returns a short description such as "file group 1a2b3c4d (3 members)".
func (g Group) String() string {
	digest := g.Digest
	if len(digest) > 8 {
		digest = digest[:8]
	}
	return fmt.Sprintf("%s group %s (%d members)", g.Kind, digest, len(g.Members))
}

// ScanError represents an error encountered while walking or hashing.
// It pairs a path with the error message for reporting.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path" yaml:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error" yaml:"error"`
}

// Progress reports hashing progress.
type Progress struct {
	// Done is the number of files processed so far.
	Done int64 `json:"done"`

	// Total is the number of files found by the walk.
	Total int64 `json:"total"`

	// CurrentPath is the file being hashed.
	CurrentPath string `json:"current_path"`
}

// Percent returns the completed fraction in the range [0, 1].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

// FormatSize converts a size in bytes to a human-readable string
// using binary (IEC) units.
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(1024) returns "1.0 KiB"
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
