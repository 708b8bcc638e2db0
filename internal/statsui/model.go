// Package statsui provides the Bubble Tea history interface.
package statsui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicps/internal/model"
	"github.com/verte-zerg/tuicps/internal/stats"
)

const (
	headerLines = 6
	footerLines = 1
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	trendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store stats.SessionLister
	cfg   model.HistoryConfig

	// tabs[0] is every mode; the rest follow model.Durations.
	tabs      []int
	activeTab int

	report stats.Report
	errMsg string
	table  table.Model

	width  int
	height int
}

// NewModel constructs a history UI model. cfg.Duration selects the initial tab.
func NewModel(st stats.SessionLister, cfg model.HistoryConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  append([]int{0}, model.Durations...),
		table: buildTable(nil, 0, 1),
	}
	if idx := model.DurationIndex(cfg.Duration); idx >= 0 {
		m.activeTab = idx + 1
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applyTable()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	bodyHeight := maxInt(1, m.height-headerLines-footerLines)
	header := fitLines(m.renderHeader(), m.width, headerLines)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render("←/→ mode  ↑/↓ scroll  -/= window  q quit"), m.width, footerLines)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	m.refreshReport()
}

func (m *Model) refreshReport() {
	m.cfg.Duration = m.tabs[m.activeTab]
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load history: %v", err)
		m.report = stats.Report{}
	} else {
		m.errMsg = ""
		m.report = report
	}
	m.applyTable()
}

func (m *Model) applyTable() {
	height := maxInt(1, m.height-headerLines-footerLines)
	m.table = buildTable(m.report.Sessions, m.width, height)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, d := range m.tabs {
		label := stats.DurationLabel(d)
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	lines := []string{m.renderTabs()}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
		return strings.Join(lines, "\n")
	}
	sum := m.report.Summary
	lines = append(lines, headerStyle.Render(fmt.Sprintf(
		"Sessions %d  Clicks %d  Avg %.2f CPS  Best %.2f CPS",
		sum.Sessions, sum.TotalClicks, sum.AvgCPS, sum.BestCPS,
	)))
	if len(m.report.Trend) > 0 {
		width := stats.TrendWidthFor(m.width)
		spark := stats.Sparkline(stats.Resample(m.report.Trend, width))
		lines = append(lines, "Trend "+trendStyle.Render(spark))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody() string {
	if len(m.report.Sessions) == 0 {
		return headerStyle.Render("No sessions found.")
	}
	return m.table.View()
}

func buildTable(sessions []model.SessionRecord, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Mode", Width: 5},
		{Title: "Clicks", Width: 6},
		{Title: "CPS", Width: 7},
		{Title: "", Width: 4},
	}
	rows := make([]table.Row, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		rows = append(rows, table.Row(stats.SessionRow(sessions[i])))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(maxInt(1, height-1)),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
