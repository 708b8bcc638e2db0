// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/tuicps/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a set of finished sessions.
type Summary struct {
	Sessions    int
	TotalClicks int
	AvgCPS      float64
	BestCPS     float64
}

// Summarize computes count, average and best CPS over sessions.
func Summarize(sessions []model.SessionRecord) Summary {
	var sum Summary
	if len(sessions) == 0 {
		return sum
	}
	var total float64
	for _, s := range sessions {
		total += s.CPS
		sum.TotalClicks += s.Clicks
		if s.CPS > sum.BestCPS {
			sum.BestCPS = s.CPS
		}
	}
	sum.Sessions = len(sessions)
	sum.AvgCPS = total / float64(len(sessions))
	return sum
}

// CPSValues extracts the CPS of each session in order.
func CPSValues(sessions []model.SessionRecord) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = s.CPS
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// DurationLabel formats a mode as "10s", or "all" for zero.
func DurationLabel(d int) string {
	if d <= 0 {
		return "all"
	}
	return fmt.Sprintf("%ds", d)
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Clicks: %d", sum.TotalClicks),
		fmt.Sprintf("Avg CPS: %.2f", sum.AvgCPS),
		fmt.Sprintf("Best CPS: %.2f", sum.BestCPS),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderBests prints the personal best for every mode that has one.
func RenderBests(w io.Writer, bests []model.Best) error {
	if len(bests) == 0 {
		_, err := fmt.Fprintln(w, "No personal bests yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Personal Bests"); err != nil {
		return err
	}
	table := newTextTable(column{title: "Mode"}, column{title: "Best", numeric: true})
	for _, b := range bests {
		table.add(fmt.Sprintf("%d seconds", b.Duration), fmt.Sprintf("%.2f CPS", b.CPS))
	}
	return table.write(w)
}

// RenderSessions prints one row per session, newest first.
func RenderSessions(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		return nil
	}
	table := newTextTable(
		column{title: "Ended"},
		column{title: "Mode"},
		column{title: "Clicks", numeric: true},
		column{title: "CPS", numeric: true},
		column{},
	)
	for i := len(sessions) - 1; i >= 0; i-- {
		table.add(SessionRow(sessions[i])...)
	}
	return table.write(w)
}

// SessionRow formats a session for tabular output.
func SessionRow(s model.SessionRecord) []string {
	mark := ""
	if s.NewBest {
		mark = "best"
	}
	return []string{
		s.EndedAt.Local().Format("2006-01-02 15:04"),
		DurationLabel(s.Duration),
		fmt.Sprintf("%d", s.Clicks),
		fmt.Sprintf("%.2f", s.CPS),
		mark,
	}
}
