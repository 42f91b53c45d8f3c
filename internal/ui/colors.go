package ui

import "github.com/charmbracelet/lipgloss"

// styles is the stylesheet for the review flow. Green matches the Spotify
// brand color the CLI uses elsewhere.
var styles = struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
}{
	title: lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true),
	err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
}
