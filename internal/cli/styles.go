package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Badge styles for run status.
var (
	badgeApplied = lipgloss.NewStyle().
			Background(colorSuccess).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Bold(true)

	badgePending = lipgloss.NewStyle().
			Background(colorWarning).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Bold(true)

	badgeError = lipgloss.NewStyle().
			Background(colorError).
			Foreground(colorWhite).
			Padding(0, 1).
			Bold(true)
)

var (
	panelSuccess = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSuccess).
			Padding(1, 2)

	panelError = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(1, 2)
)

// RenderBadge renders a styled badge, or "[TEXT]" without colors.
func RenderBadge(text string, style lipgloss.Style) string {
	if !EnableColors() {
		return "[" + text + "]"
	}
	return style.Render(text)
}

// RenderAppliedBadge renders an "applied" status badge.
func RenderAppliedBadge() string {
	return RenderBadge("APPLIED", badgeApplied)
}

// RenderDryRunBadge renders a "dry run" status badge.
func RenderDryRunBadge() string {
	return RenderBadge("DRY RUN", badgePending)
}

// RenderErrorBadge renders a "failed" badge.
func RenderErrorBadge() string {
	return RenderBadge("FAILED", badgeError)
}

// RenderSuccessPanel renders content in a success-styled panel.
func RenderSuccessPanel(title, content string) string {
	if !EnableColors() {
		return fmt.Sprintf("✓ %s\n%s", title, content)
	}
	titleRendered := lipgloss.NewStyle().Bold(true).Foreground(colorSuccess).Render("✓ " + title)
	return panelSuccess.Render(titleRendered + "\n\n" + content)
}

// RenderErrorPanel renders content in an error-styled panel.
func RenderErrorPanel(title, content string) string {
	if !EnableColors() {
		return fmt.Sprintf("✗ %s\n%s", title, content)
	}
	titleRendered := lipgloss.NewStyle().Bold(true).Foreground(colorError).Render("✗ " + title)
	return panelError.Render(titleRendered + "\n\n" + content)
}

// KeyValue renders a key-value pair.
func KeyValue(key, value string) string {
	if !EnableColors() {
		return fmt.Sprintf("%s: %s", key, value)
	}
	return styleDim.Render(key+":") + " " + value
}
