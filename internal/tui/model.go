package tui

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tdstark/SodaOperator/internal/engine"
	"github.com/tdstark/SodaOperator/internal/storage"
)

// mode represents the current UI interaction mode.
type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilterOutcome
)

const defaultTableHeight = 15

// Model is the top-level Bubble Tea model for the results browser.
type Model struct {
	// Data (immutable after init)
	run       *storage.ScanRun
	allChecks []engine.Check

	// UI state
	table          table.Model
	searchInput    textinput.Model
	filteredChecks []engine.Check
	filters        filterState
	sortBy         sortField
	mode           mode
	outcomeChoices []string
	outcomeCursor  int
	width          int
	height         int
	statusMsg      string
	// clipboard is captured here for testing instead of writing to stdout
	clipboard string
}

// New creates a new TUI model from a stored scan run.
func New(run *storage.ScanRun) Model {
	checks := make([]engine.Check, len(run.Checks))
	copy(checks, run.Checks)

	sortChecks(checks, sortByOutcome)
	rows := buildRows(checks)
	t := newTable(rows, defaultTableHeight)

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 64

	return Model{
		run:            run,
		allChecks:      checks,
		filteredChecks: checks,
		table:          t,
		searchInput:    ti,
		sortBy:         sortByOutcome,
		mode:           modeNormal,
		outcomeChoices: uniqueOutcomes(checks),
		width:          80,
		height:         24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		tableH := msg.Height - headerHeight - detailHeight - 3
		if tableH < 3 {
			tableH = 3
		}
		m.table.SetHeight(tableH)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	default:
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeFilterOutcome:
		return m.handleFilterOutcomeKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.FilterOutcome):
		m.mode = modeFilterOutcome
		m.outcomeCursor = 0
		return m, nil
	case key.Matches(msg, keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortField(sortFieldCount)
		m.rebuildTable()
		m.statusMsg = fmt.Sprintf("Sort: %s", sortFieldName(m.sortBy))
		return m, nil
	case key.Matches(msg, keys.Copy):
		m.copySelectedCheck()
		return m, nil
	case key.Matches(msg, keys.ClearFilter):
		m.filters = filterState{}
		m.statusMsg = ""
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filters.SearchText = m.searchInput.Value()
		m.mode = modeNormal
		m.searchInput.Blur()
		m.rebuildTable()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterOutcomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.outcomeCursor > 0 {
			m.outcomeCursor--
		}
	case "down", "j":
		if m.outcomeCursor < len(m.outcomeChoices) {
			m.outcomeCursor++
		}
	case "enter":
		if m.outcomeCursor == 0 {
			m.filters.Outcome = ""
		} else if m.outcomeCursor <= len(m.outcomeChoices) {
			m.filters.Outcome = m.outcomeChoices[m.outcomeCursor-1]
		}
		m.mode = modeNormal
		m.rebuildTable()
		if m.filters.Outcome != "" {
			m.statusMsg = fmt.Sprintf("Filter: %s", m.filters.Outcome)
		} else {
			m.statusMsg = ""
		}
	case "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) rebuildTable() {
	filtered := applyFilters(m.allChecks, m.filters)
	sortChecks(filtered, m.sortBy)
	m.filteredChecks = filtered
	m.table.SetRows(buildRows(filtered))
}

func (m *Model) selectedCheck() *engine.Check {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.filteredChecks) {
		return nil
	}
	return &m.filteredChecks[cursor]
}

// copySelectedCheck writes the selected check to clipboard via OSC 52.
func (m *Model) copySelectedCheck() {
	check := m.selectedCheck()
	if check == nil {
		m.statusMsg = "Nothing to copy"
		return
	}
	text := fmt.Sprintf("[%s] %s", strings.ToUpper(check.Outcome), check.Name)
	if check.Table != "" {
		text += fmt.Sprintf(" (%s)", check.Table)
	}
	if check.Definition != "" {
		text += ": " + firstLine(check.Definition)
	}
	m.clipboard = text
	m.statusMsg = "Copied!"
	// OSC 52 clipboard escape: works in most modern terminals
	fmt.Printf("\033]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(renderHeader(m.run, m.width))
	b.WriteString("\n")

	// Search bar overlay
	if m.mode == modeSearch {
		b.WriteString(styleSearchPrompt.Render("/ "))
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	// Outcome filter overlay
	if m.mode == modeFilterOutcome {
		b.WriteString(m.renderOutcomeFilter())
		b.WriteString("\n")
	}

	// Table
	b.WriteString(m.table.View())
	b.WriteString("\n")

	// Detail panel
	b.WriteString(renderDetail(m.selectedCheck(), m.width))
	b.WriteString("\n")

	// Footer
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderOutcomeFilter() string {
	var b strings.Builder
	b.WriteString("Filter by outcome:\n")

	options := append([]string{"All"}, m.outcomeChoices...)
	for i, opt := range options {
		cursor := "  "
		if i == m.outcomeCursor {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, opt))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	left := "q:quit  /:search  o:outcome  s:sort  c:copy  esc:clear"
	right := fmt.Sprintf("%d/%d checks", len(m.filteredChecks), len(m.allChecks))

	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styleFooter.Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the Bubble Tea program. Called from the results command.
func Run(run *storage.ScanRun) error {
	m := New(run)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
