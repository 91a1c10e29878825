package ui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	title    lipgloss.Style
	tabOn    lipgloss.Style
	tabOff   lipgloss.Style
	cursor   lipgloss.Style
	done     lipgloss.Style
	pending  lipgloss.Style
	expired  lipgloss.Style
	muted    lipgloss.Style
	alert    lipgloss.Style
	selected lipgloss.Style
}

func newTheme(fg, accent, dim, good, bad lipgloss.Color) theme {
	return theme{
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		tabOn:    lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accent).Padding(0, 1),
		tabOff:   lipgloss.NewStyle().Foreground(dim).Padding(0, 1),
		cursor:   lipgloss.NewStyle().Foreground(accent),
		done:     lipgloss.NewStyle().Strikethrough(true).Foreground(dim),
		pending:  lipgloss.NewStyle().Foreground(good),
		expired:  lipgloss.NewStyle().Foreground(bad),
		muted:    lipgloss.NewStyle().Foreground(dim),
		alert:    lipgloss.NewStyle().Bold(true).Foreground(bad),
		selected: lipgloss.NewStyle().Foreground(fg).Bold(true),
	}
}

// themes is keyed by dark mode.
var themes = map[bool]theme{
	false: newTheme("#1c1c1c", "#6200ea", "#808080", "#2e7d32", "#c62828"),
	true:  newTheme("#ffffff", "#bb86fc", "#8a8a8a", "#90ee90", "#ffcccb"),
}
