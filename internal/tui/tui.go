// Package tui provides a Bubble Tea TUI for viewing sessiondiff notes.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/sessiondiff/internal/report"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	diffAddStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	diffDelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	diffMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	diffHunkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	statusStyles = map[report.FileStatus]lipgloss.Style{
		report.StatusNew:      lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		report.StatusModified: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		report.StatusDeleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		report.StatusRenamed:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		report.StatusBinary:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	}
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabFiles
	tabDiff
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Files", "Diff"}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	note      *report.Note
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	// Files tab: cursor position and expanded set
	fileCursor    int
	expandedFiles map[int]bool
}

// New creates a new TUI model for the given note and source filename.
func New(n *report.Note, filename string) Model {
	return Model{
		note:          n,
		filename:      filepath.Base(filename),
		expandedFiles: make(map[int]bool),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "up", "k":
			if m.activeTab == tabFiles && m.fileCursor > 0 {
				m.fileCursor--
				m.rebuildFilesViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabFiles && m.fileCursor < len(m.note.Files)-1 {
				m.fileCursor++
				m.rebuildFilesViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabFiles && len(m.note.Files) > 0 {
				if m.note.Files[m.fileCursor].Text != "" {
					if m.expandedFiles[m.fileCursor] {
						delete(m.expandedFiles, m.fileCursor)
					} else {
						m.expandedFiles[m.fileCursor] = true
					}
					m.rebuildFilesViewport()
				}
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  sessiondiff  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-3 jump  q quit"
	if m.activeTab == tabFiles {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildFilesViewport() {
	m.viewports[tabFiles].SetContent(m.renderTab(tabFiles))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabFiles:
		return m.renderFiles()
	case tabDiff:
		return m.renderFullDiff()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderSummary() string {
	n := m.note
	var sb strings.Builder
	sb.WriteString(heading("Session"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("Work Dir:", n.Session.WorkDir)
	if n.Session.ID != "" {
		row("Session:", n.Session.ID)
	}
	row("Baseline:", n.Session.Baseline)
	row("Started:", n.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	row("Captured:", n.CapturedAt.Format("2006-01-02 15:04:05 MST"))
	if n.Git != nil {
		row("Branch:", n.Git.Branch)
		row("Head:", n.Git.Head)
	}

	sb.WriteString(heading("Counts"))
	row("Files:", fmt.Sprintf("%d", len(n.Files)))
	row("Added:", diffAddStyle.Render(fmt.Sprintf("+%d", n.Added)))
	row("Removed:", diffDelStyle.Render(fmt.Sprintf("-%d", n.Removed)))

	counts := make(map[report.FileStatus]int)
	for _, f := range n.Files {
		counts[f.Status]++
	}
	for _, st := range []report.FileStatus{report.StatusNew, report.StatusModified, report.StatusDeleted, report.StatusRenamed, report.StatusBinary} {
		if counts[st] > 0 {
			row(strings.ToUpper(string(st[:1]))+string(st[1:])+":", fmt.Sprintf("%d", counts[st]))
		}
	}

	if n.Git != nil && len(n.Git.Commits) > 0 {
		sb.WriteString(heading(fmt.Sprintf("Commits (%d)", len(n.Git.Commits))))
		for _, c := range n.Git.Commits {
			sb.WriteString("  " + c + "\n")
		}
	}
	return sb.String()
}

func (m *Model) renderFiles() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Files (%d)", len(m.note.Files))))
	if len(m.note.Files) == 0 {
		sb.WriteString(dimStyle.Render("  (no changes)") + "\n")
		return sb.String()
	}
	for i, f := range m.note.Files {
		hasText := f.Text != ""
		expanded := m.expandedFiles[i]

		toggle := dimStyle.Render("  ▶ ")
		if expanded {
			toggle = dimStyle.Render("  ▼ ")
		}
		if !hasText {
			toggle = "    "
		}

		badge := statusStyles[f.Status].Render(fmt.Sprintf("%-9s", f.Status))
		path := f.Path
		if f.OldPath != "" {
			path = f.OldPath + " → " + f.Path
		}
		stats := diffAddStyle.Render(fmt.Sprintf("+%d", f.Added)) + " " + diffDelStyle.Render(fmt.Sprintf("-%d", f.Removed))

		row := fmt.Sprintf("%s%s  %s  %s", toggle, badge, path, stats)
		if i == m.fileCursor {
			row = selectedRowStyle.Width(max(m.width-2, 1)).Render(row)
		}
		sb.WriteString(row + "\n")

		if expanded && hasText {
			sb.WriteString(renderDiff(f.Text, m.width))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderFullDiff() string {
	if m.note.Diff == "" {
		return heading("Diff") + dimStyle.Render("  (empty)") + "\n"
	}
	return heading("Diff") + renderDiff(m.note.Diff, m.width)
}

// renderDiff colorises a unified diff string.
func renderDiff(diff string, width int) string {
	var sb strings.Builder
	border := dimStyle.Render("  " + strings.Repeat("─", max(width-4, 0)))
	sb.WriteString(border + "\n")
	for _, line := range strings.Split(diff, "\n") {
		var rendered string
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			rendered = diffMetaStyle.Render("  " + line)
		case strings.HasPrefix(line, "+"):
			rendered = diffAddStyle.Render("  " + line)
		case strings.HasPrefix(line, "-"):
			rendered = diffDelStyle.Render("  " + line)
		case strings.HasPrefix(line, "@@"):
			rendered = diffHunkStyle.Render("  " + line)
		case strings.HasPrefix(line, "diff --git"):
			rendered = sectionHeader.Render("  " + line)
		default:
			rendered = dimStyle.Render("  " + line)
		}
		sb.WriteString(rendered + "\n")
	}
	sb.WriteString(border + "\n")
	return sb.String()
}

// Run starts the TUI for the given note.
func Run(n *report.Note, filename string) error {
	p := tea.NewProgram(New(n, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
