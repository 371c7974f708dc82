package planner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode is how a group's removal set was chosen.
type Mode int

const (
	// ModeNone skips the group.
	ModeNone Mode = iota
	// ModeAll keeps the first member and removes the rest.
	ModeAll
	// ModeSelect removes the members named by Indices.
	ModeSelect
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeAll:
		return "all"
	case ModeSelect:
		return "select"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Selection is a resolved answer for one group.
type Selection struct {
	Mode Mode

	// Indices are 1-based member positions to remove, sorted and unique.
	// Only set for ModeSelect.
	Indices []int
}

// InputError is returned for a selection that cannot be parsed. The group
// it was given for is skipped.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Input, e.Reason)
}

// Tokens accepted for "remove every duplicate". "todos" is kept for users
// of the older Spanish prompt.
var allTokens = map[string]bool{"all": true, "todos": true}

var noneTokens = map[string]bool{"": true, "none": true, "skip": true}

// ParseSelection parses a response for a group of n members. It accepts
// "all", "none" (or an empty line), or a comma-separated list of 1-based
// indices. Indices outside 1..n are dropped. Any other token is an
// *InputError.
func ParseSelection(response string, n int) (Selection, error) {
	resp := strings.ToLower(strings.TrimSpace(response))

	if allTokens[resp] {
		return Selection{Mode: ModeAll}, nil
	}
	if noneTokens[resp] {
		return Selection{Mode: ModeNone}, nil
	}

	seen := make(map[int]bool)
	var indices []int
	for _, tok := range strings.Split(resp, ",") {
		tok = strings.TrimSpace(tok)
		i, err := strconv.Atoi(tok)
		if err != nil {
			return Selection{}, &InputError{Input: response, Reason: fmt.Sprintf("%q is not a number", tok)}
		}
		if i < 1 || i > n || seen[i] {
			continue
		}
		seen[i] = true
		indices = append(indices, i)
	}
	sort.Ints(indices)

	return Selection{Mode: ModeSelect, Indices: indices}, nil
}

func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, n := range indices {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
