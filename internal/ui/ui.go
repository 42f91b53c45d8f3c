package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/Topasm/MP3toSpotify/internal/duplicates"
	"github.com/Topasm/MP3toSpotify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	GroupListView
	ConfirmView
	RemovingView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	engine    *tasks.Engine
	ref       string
	width     int
	height    int
	groupList list.Model
	report    *tasks.DuplicateReport
	picked    map[string]bool
	result    *tasks.RemovalResult
	err       error
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
}

// NewModel creates a TUI model reviewing duplicates in the given playlist.
// The ref may be a playlist ID or name, resolved the same way the
// non-interactive duplicates commands resolve it.
func NewModel(ctx context.Context, engine *tasks.Engine, ref string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    LoadingView,
		engine:  engine,
		ref:     ref,
		picked:  make(map[string]bool),
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Err reports the failure that ended the session, if any. The alt screen is
// gone once the program returns, so the caller reports this instead.
func (m *Model) Err() error {
	return m.err
}

// Init starts the spinner and kicks off the duplicate scan.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scan())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.groupList.Width() == 0 {
			m.groupList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view == LoadingView || m.view == RemovingView {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GroupListView:
			return m.handleGroupListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case LoadingView, RemovingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case scanDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.report = msg.report
		if len(m.report.Groups) == 0 {
			m.view = ResultView
			return m, nil
		}
		items := make([]list.Item, len(m.report.Groups))
		for i, g := range m.report.Groups {
			m.picked[g.ID] = true
			items[i] = groupItem{group: g, picked: m.picked}
		}
		m.groupList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.groupList.Title = fmt.Sprintf("Duplicates in '%s'", m.report.Playlist.Name)
		m.groupList.SetSize(m.width-4, m.height-8)
		m.view = GroupListView
		return m, nil

	case removeDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case GroupListView:
		return m.renderGroupList()
	case ConfirmView:
		return m.renderConfirm()
	case RemovingView:
		return m.renderRemoving()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleGroupListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if item, ok := m.groupList.SelectedItem().(groupItem); ok {
			m.picked[item.group.ID] = !m.picked[item.group.ID]
		}
		return m, nil
	case "enter":
		if len(m.selectedGroups()) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.groupList, cmd = m.groupList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = GroupListView
		return m, nil
	case "y":
		m.view = RemovingView
		return m, tea.Batch(m.spinner.Tick, m.remove())
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == GroupListView {
		m.groupList, cmd = m.groupList.Update(msg)
	}
	return m, cmd
}

func (m *Model) scan() tea.Cmd {
	return func() tea.Msg {
		report, err := m.engine.DuplicateScan(m.ctx, m.ref)
		return scanDoneMsg{report: report, err: err}
	}
}

func (m *Model) remove() tea.Cmd {
	groups := m.selectedGroups()
	return func() tea.Msg {
		result, err := m.engine.RemoveGroups(m.ctx, m.report.Playlist, groups)
		return removeDoneMsg{result: result, err: err}
	}
}

// selectedGroups returns the picked groups in report order.
func (m *Model) selectedGroups() []duplicates.Group {
	var out []duplicates.Group
	if m.report == nil {
		return out
	}
	for _, g := range m.report.Groups {
		if m.picked[g.ID] {
			out = append(out, g)
		}
	}
	return out
}

func extraCount(groups []duplicates.Group) int {
	extra := 0
	for _, g := range groups {
		extra += g.Occurrences() - 1
	}
	return extra
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("%s Scanning '%s' for duplicates...", m.spinner.View(), m.ref)
}

func (m *Model) renderGroupList() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.groupList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	selected := m.selectedGroups()
	title := styles.title.Render(fmt.Sprintf("Remove %d extra copies from '%s'?", extraCount(selected), m.report.Playlist.Name))
	notice := styles.warn.Render("A JSON backup is written before anything is removed.")
	info := fmt.Sprintf("\nGroups selected: %d of %d\n%s\n",
		len(selected), len(m.report.Groups), notice)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}

func (m *Model) renderRemoving() string {
	return fmt.Sprintf("%s Backing up and removing duplicates...", m.spinner.View())
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Removal failed: %v\n\nPress q to quit", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.result == nil {
		name := m.ref
		if m.report != nil {
			name = m.report.Playlist.Name
		}
		title := styles.ok.Render("✓ No duplicates found")
		return fmt.Sprintf("%s\n\nEvery track in '%s' appears once.\n\n%s", title, name, helpView)
	}

	title := styles.ok.Render(fmt.Sprintf("✓ Removed %d duplicate tracks", m.result.Removed))
	info := fmt.Sprintf("\nPlaylist: %s\nBackup: %s\n", m.result.Playlist.Name, m.result.BackupPath)

	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}
