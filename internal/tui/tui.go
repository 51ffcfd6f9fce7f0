// Package tui provides a Bubble Tea TUI for browsing saved projects and their
// drift from the live window.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/reconcile"
	"github.com/fakeyudi/tabkeep/internal/search"
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

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	activeBadgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	pinnedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	matchStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	addStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	delStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	modStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	queryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("237"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// groupColors maps tab group colors to terminal colors.
var groupColors = map[project.Color]lipgloss.Color{
	project.Grey:   "245",
	project.Blue:   "33",
	project.Red:    "196",
	project.Yellow: "226",
	project.Green:  "82",
	project.Pink:   "205",
	project.Purple: "135",
	project.Cyan:   "51",
}

// ── Tab definitions ─────────────────

type tabID int

const (
	tabProjects tabID = iota
	tabGroups
	tabDrift
	tabLive
	tabSearch
	tabCount
)

var tabNames = [tabCount]string{"Projects", "Groups", "Drift", "Live", "Search"}

// Data is everything the TUI shows. Live is nil when the window could not
// be read; LiveErr then says why.
type Data struct {
	Projects []project.Project
	ActiveID string
	Live     []project.Group
	LiveErr  error
	Source   string // store location, shown in the title bar
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	data      Data
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool

	cursor   int
	expanded map[int]bool

	query     string
	searching bool
}

// New creates a TUI model. The cursor starts on the active project.
func New(data Data) Model {
	m := Model{data: data, expanded: make(map[int]bool)}
	for i, p := range data.Projects {
		if p.ID == data.ActiveID {
			m.cursor = i
		}
	}
	return m
}

func (m Model) selected() *project.Project {
	if m.cursor < 0 || m.cursor >= len(m.data.Projects) {
		return nil
	}
	return &m.data.Projects[m.cursor]
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateQuery(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4", "5":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "/":
			m.activeTab = tabSearch
			m.searching = true
			m.refresh(tabSearch)
			return m, nil
		case "up", "k":
			if m.activeTab == tabProjects && m.cursor > 0 {
				m.cursor--
				m.refreshSelection()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabProjects && m.cursor < len(m.data.Projects)-1 {
				m.cursor++
				m.refreshSelection()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabProjects && len(m.data.Projects) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.refresh(tabProjects)
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

func (m Model) updateQuery(msg tea.KeyMsg) Model {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
	case tea.KeyCtrlC:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	}
	m.refresh(tabSearch)
	return m
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  tabkeep  " + m.data.Source)

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

	hint := "  ←/→ tab  ↑/↓ scroll  1-5 jump  / search  q quit"
	switch {
	case m.searching:
		hint = "  type to search  enter done  esc done"
	case m.activeTab == tabProjects:
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

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

func (m *Model) refresh(t tabID) {
	if m.ready {
		m.viewports[t].SetContent(m.renderTab(t))
	}
}

// refreshSelection re-renders every tab that depends on the cursor.
func (m *Model) refreshSelection() {
	m.refresh(tabProjects)
	m.refresh(tabGroups)
	m.refresh(tabDrift)
	if m.ready {
		m.viewports[tabGroups].GotoTop()
		m.viewports[tabDrift].GotoTop()
	}
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabProjects:
		return m.renderProjects()
	case tabGroups:
		return m.renderGroups()
	case tabDrift:
		return m.renderDrift()
	case tabLive:
		return m.renderLive()
	case tabSearch:
		return m.renderSearch()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func swatch(c project.Color) string {
	col, ok := groupColors[c]
	if !ok {
		col = "245"
	}
	return lipgloss.NewStyle().Foreground(col).Render("●")
}

func groupTitle(g project.Group) string {
	if g.Title == "" {
		return dimStyle.Render("(untitled)")
	}
	return g.Title
}

func tabLine(t project.Tab) string {
	label := t.Title
	if label == "" {
		label = t.URL
	}
	line := "      " + label
	if t.Pinned {
		line += " " + pinnedStyle.Render("[pinned]")
	}
	if t.Title != "" && t.URL != "" {
		line += "\n      " + dimStyle.Render(t.URL)
	}
	return line + "\n"
}

func (m *Model) renderProjects() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Projects (%d)", len(m.data.Projects))))
	if len(m.data.Projects) == 0 {
		sb.WriteString(dimStyle.Render("  (none saved yet; run `tabkeep save <name>`)") + "\n")
		return sb.String()
	}

	for i, p := range m.data.Projects {
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		badge := "  "
		if p.ID == m.data.ActiveID {
			badge = activeBadgeStyle.Render("● ")
		}
		counts := dimStyle.Render(fmt.Sprintf("%d groups, %d tabs", len(p.Groups), p.TabCount()))
		updated := timeStyle.Render(p.Updated().Format("2006-01-02 15:04"))

		row := fmt.Sprintf("%s%s%s  %s  %s", toggle, badge, p.Name, counts, updated)
		if i == m.cursor {
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")

		if m.expanded[i] {
			for _, g := range p.Groups {
				sb.WriteString(fmt.Sprintf("      %s %s %s\n", swatch(g.Color), groupTitle(g), dimStyle.Render(fmt.Sprintf("(%d)", len(g.Tabs)))))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderGroups() string {
	var sb strings.Builder
	p := m.selected()
	if p == nil {
		sb.WriteString(heading("Groups"))
		sb.WriteString(dimStyle.Render("  (no project selected)") + "\n")
		return sb.String()
	}

	sb.WriteString(heading(fmt.Sprintf("%s: %d groups", p.Name, len(p.Groups))))
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-10s", label)) + "  " + value + "\n")
	}
	row("ID:", p.ID)
	row("Created:", p.Created().Format("2006-01-02 15:04:05 MST"))
	row("Updated:", p.Updated().Format("2006-01-02 15:04:05 MST"))
	sb.WriteString("\n")

	m.writeGroups(&sb, p.Groups)
	return sb.String()
}

func (m *Model) writeGroups(sb *strings.Builder, groups []project.Group) {
	if len(groups) == 0 {
		sb.WriteString(dimStyle.Render("  (no groups)") + "\n")
		return
	}
	for _, g := range groups {
		state := string(g.Color)
		if g.Collapsed {
			state += ", collapsed"
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", swatch(g.Color), groupTitle(g), dimStyle.Render("("+state+")")))
		for _, t := range g.Tabs {
			sb.WriteString(tabLine(t))
		}
		sb.WriteString("\n")
	}
}

func (m *Model) renderDrift() string {
	var sb strings.Builder
	p := m.selected()
	if p == nil {
		sb.WriteString(heading("Drift"))
		sb.WriteString(dimStyle.Render("  (no project selected)") + "\n")
		return sb.String()
	}
	sb.WriteString(heading("Drift: " + p.Name + " vs live window"))
	if m.data.Live == nil {
		sb.WriteString(dimStyle.Render("  (live window unavailable: "+errText(m.data.LiveErr)+")") + "\n")
		return sb.String()
	}

	report := reconcile.DiffGroups(p.Groups, m.data.Live)
	if !report.HasChanges {
		sb.WriteString(addStyle.Render("  ✓ live window matches the saved project") + "\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("  %s  %s\n\n",
		addStyle.Render(fmt.Sprintf("+%d tabs", report.TotalAdded)),
		delStyle.Render(fmt.Sprintf("-%d tabs", report.TotalRemoved))))

	for _, g := range report.Groups {
		var badge string
		switch g.Status {
		case reconcile.Added:
			badge = addStyle.Render("ADDED   ")
		case reconcile.Removed:
			badge = delStyle.Render("REMOVED ")
		default:
			badge = modStyle.Render("MODIFIED")
		}
		title := g.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(fmt.Sprintf("  %s  %s %s\n", badge, swatch(g.Color), title))
		for _, t := range g.AddedTabs {
			sb.WriteString(addStyle.Render("      + "+t.URL) + "\n")
		}
		for _, t := range g.RemovedTabs {
			sb.WriteString(delStyle.Render("      - "+t.URL) + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderLive() string {
	var sb strings.Builder
	if m.data.Live == nil {
		sb.WriteString(heading("Live window"))
		sb.WriteString(dimStyle.Render("  (unavailable: "+errText(m.data.LiveErr)+")") + "\n")
		return sb.String()
	}
	sb.WriteString(heading(fmt.Sprintf("Live window (%d groups)", len(m.data.Live))))
	m.writeGroups(&sb, m.data.Live)
	return sb.String()
}

func (m *Model) renderSearch() string {
	var sb strings.Builder
	cursor := ""
	if m.searching {
		cursor = "█"
	}
	sb.WriteString("\n  " + labelStyle.Render("Search:") + " " + queryStyle.Render(" "+m.query+cursor+" ") + "\n")

	results := search.Search(m.data.Projects, m.query)
	if strings.TrimSpace(m.query) == "" {
		sb.WriteString("\n" + dimStyle.Render("  press / and type to search tab titles, URLs and project names") + "\n")
		return sb.String()
	}
	sb.WriteString(heading(fmt.Sprintf("%d projects, %d tabs", len(results), search.CountMatches(results))))
	if len(results) == 0 {
		sb.WriteString(dimStyle.Render("  (no matches)") + "\n")
		return sb.String()
	}
	for _, r := range results {
		sb.WriteString("  " + matchStyle.Render(r.Project.Name) + "\n")
		for _, g := range r.MatchingGroups {
			sb.WriteString(fmt.Sprintf("    %s %s\n", swatch(g.Group.Color), groupTitle(g.Group)))
			for _, t := range g.MatchingTabs {
				sb.WriteString("  " + tabLine(t))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func errText(err error) string {
	if err == nil {
		return "not connected"
	}
	return err.Error()
}

// Run starts the TUI.
func Run(data Data) error {
	p := tea.NewProgram(New(data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
