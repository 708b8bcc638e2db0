package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicps/internal/model"
	"github.com/verte-zerg/tuicps/internal/session"
)

const (
	surfaceWidth  = 48
	surfaceHeight = 7
	cardWidth     = 14
)

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	subtitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	activeModeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveModeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	disabledModeStyle = inactiveModeStyle.Copy().Foreground(lipgloss.Color("#4A4A4A"))
	cardStyle         = lipgloss.NewStyle().
				Width(cardWidth).
				Align(lipgloss.Center).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	surfaceStyle   = lipgloss.NewStyle().
			Width(surfaceWidth).
			Height(surfaceHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#6E6E6E"))
	activeSurfaceStyle = surfaceStyle.Copy().
				Border(lipgloss.ThickBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A"))
	surfaceLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	newBestStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.session.Snapshot()
	sections := []string{
		titleStyle.Render(windowTitle),
		subtitleStyle.Render("Test your clicking speed and reflexes"),
		"",
		m.renderModes(snap),
		m.renderStats(snap),
	}
	surfaceTop := 0
	for _, s := range sections {
		surfaceTop += lipgloss.Height(s)
	}
	surface := m.renderSurface(snap)
	sections = append(sections, surface)
	if result := m.renderResult(snap); result != "" {
		sections = append(sections, result)
	}
	if bests := m.renderBests(); bests != "" {
		sections = append(sections, bests)
	}
	sections = append(sections, m.help.View(m.keys))
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)

	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		m.surfaceRows = rowSpan{}
		return content + "\n" + footer
	}
	bodyHeight := m.height - 1
	if m.height < 3 {
		bodyHeight = m.height
	}
	top := surfaceTop + centerOffset(bodyHeight, lipgloss.Height(content))
	m.surfaceRows = rowSpan{top: top, bottom: top + lipgloss.Height(surface)}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// rowSpan is a half-open range of screen rows. The zero value means the
// layout has not been drawn at a known size yet.
type rowSpan struct {
	top, bottom int
}

func (r rowSpan) known() bool {
	return r.bottom > r.top
}

func (r rowSpan) contains(y int) bool {
	return y >= r.top && y < r.bottom
}

// centerOffset is the first row of content centered in area rows, matching
// lipgloss.Place. Content taller than the area starts at row 0.
func centerOffset(area, content int) int {
	gap := area - content
	if gap <= 0 {
		return 0
	}
	return gap - int(math.Round(float64(gap)*float64(lipgloss.Center)))
}

func (m *Model) renderModes(snap session.Snapshot) string {
	buttons := make([]string, 0, len(model.Durations))
	for _, d := range model.Durations {
		label := fmt.Sprintf("%ds", d)
		style := inactiveModeStyle
		switch {
		case d == snap.Duration:
			style = activeModeStyle
		case snap.Phase == session.Running:
			style = disabledModeStyle
		}
		buttons = append(buttons, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, buttons...)
}

func (m *Model) renderStats(snap session.Snapshot) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Clicks", fmt.Sprintf("%d", snap.Clicks)),
		renderCard("Time Left", formatRemaining(snap.Remaining)),
		renderCard("CPS", formatCPS(snap.CPS)),
	)
}

func renderCard(title, value string) string {
	return cardStyle.Render(cardValueStyle.Render(value) + "\n" + cardTitleStyle.Render(title))
}

func (m *Model) renderSurface(snap session.Snapshot) string {
	lines := []string{surfaceLabelStyle.Render(surfaceLabel(snap.Phase))}
	if snap.Phase == session.Idle {
		lines = append(lines, subtitleStyle.Render(fmt.Sprintf("%d second test", snap.Duration)))
	}
	style := surfaceStyle
	if snap.Phase == session.Running {
		style = activeSurfaceStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func surfaceLabel(phase session.Phase) string {
	switch phase {
	case session.Running:
		return "CLICK!"
	case session.Finished:
		return "Click to Play Again"
	default:
		return "Click to Start"
	}
}

func (m *Model) renderResult(snap session.Snapshot) string {
	if snap.Phase != session.Finished {
		return ""
	}
	best, _ := m.bests.Get(snap.Duration)
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Your CPS", formatCPS(snap.CPS)),
		renderCard("Personal Best", formatCPS(best)),
	)
	lines := []string{titleStyle.Render("Test Complete!"), row}
	if m.newBest {
		lines = append(lines, newBestStyle.Render("New Personal Best!"))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderBests() string {
	var lines []string
	for _, d := range model.Durations {
		cps, ok := m.bests.Get(d)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%2d seconds: %s CPS", d, formatCPS(cps)))
	}
	if len(lines) == 0 {
		return ""
	}
	return subtitleStyle.Render("Personal Bests") + "\n" + strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	d := m.session.Duration()
	segments := []string{fmt.Sprintf("Mode %ds", d)}
	t := m.totals[d]
	segments = append(segments, fmt.Sprintf("Sessions %d", t.count))
	if t.count > 0 {
		segments = append(segments, fmt.Sprintf("Avg %s CPS", formatCPS(t.sum/float64(t.count))))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatRemaining(seconds float64) string {
	return fmt.Sprintf("%.1fs", seconds)
}

func formatCPS(cps float64) string {
	return fmt.Sprintf("%.2f", cps)
}
