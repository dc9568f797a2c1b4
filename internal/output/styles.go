package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette: named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: image references, tags, file paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "pushed" step status (bright, high-visibility).
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for in-flight step statuses.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for the "failed" step status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")
)

// Semantic styles mapping domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (image references, tags, paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (building, tagging, pushing).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Step status constants.
const (
	StatusBuilt   = "built"
	StatusTagged  = "tagged"
	StatusPushed  = "pushed"
	StatusWritten = "written"
	StatusFailed  = "failed"
)

// StatusStyle returns the lipgloss style for a given step status string.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusBuilt, StatusTagged:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusPushed, StatusWritten:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minRefColumnWidth is the minimum width for the image-reference column
// before the status suffix. This ensures status words align consistently.
const minRefColumnWidth = 56

// FormatStepLine renders an image reference with a right-aligned,
// color-coded status suffix.
//
// Format: i:<reference>  <status>
//
// The "i:" prefix is dim, the reference is cyan, and the status uses StatusStyle.
func FormatStepLine(ref, status string) string {
	padding := minRefColumnWidth - len(ref)
	if padding < 2 {
		padding = 2
	}

	prefix := StyleDim.Render("i:")
	styledRef := StyleNoun.Render(ref)
	styledStatus := StatusStyle(status).Render(status)

	return prefix + styledRef + strings.Repeat(" ", padding) + styledStatus
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatSummary renders the release summary line.
func FormatSummary(tag string, pushed int, elapsed string) string {
	return StyleSummary.Render(fmt.Sprintf("Release %s complete: %d tags pushed in %s", tag, pushed, elapsed))
}
