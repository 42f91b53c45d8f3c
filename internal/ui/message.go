package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/Topasm/MP3toSpotify/internal/tasks"
)

var (
	_ tea.Msg = scanDoneMsg{}
	_ tea.Msg = removeDoneMsg{}
)

// scanDoneMsg reports the duplicate scan that runs while the spinner shows.
type scanDoneMsg struct {
	report *tasks.DuplicateReport
	err    error
}

// removeDoneMsg reports the backup-then-remove pass for the confirmed groups.
type removeDoneMsg struct {
	result *tasks.RemovalResult
	err    error
}
