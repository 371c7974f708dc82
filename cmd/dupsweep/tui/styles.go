// Package tui provides the interactive terminal pieces of the dupsweep CLI:
// a line prompt for choosing which copies to remove and a hashing progress
// bar. It uses Charmbracelet's Bubble Tea, Lip Gloss, and Bubbles.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the TUI.
var (
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")

	dangerColor = lipgloss.Color("#DC3545")
	mutedColor  = lipgloss.Color("#666666")
)

var (
	// promptStyle renders the question before the input field.
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// inputTextStyle renders what the user typed.
	inputTextStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// placeholderStyle renders the empty-input hint.
	placeholderStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	// abortedStyle marks a prompt left with Ctrl+C.
	abortedStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	// progressLabelStyle renders the counter next to the bar.
	progressLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor)
)

// truncatePath truncates a path to fit within maxLen, preserving the end.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-maxLen+3:]
}
