// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"os"

	"github.com/verte-zerg/tuicps/internal/model"
	"golang.org/x/term"
)

const (
	minTrendWidth       = 10
	trendLabel          = "Trend "
	terminalWidthBackup = 80
)

// Resample shrinks values to at most width points by averaging buckets.
// Shorter input is returned unchanged.
func Resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// TrendWidthFor computes a sparkline width that fits within the total available width.
func TrendWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minTrendWidth
	}
	width := totalWidth - displayWidth(trendLabel)
	if width < minTrendWidth {
		width = minTrendWidth
	}
	return width
}

// RenderTrend prints a moving-average CPS sparkline with its range.
// A zero totalWidth uses the terminal width.
func RenderTrend(w io.Writer, sessions []model.SessionRecord, window, totalWidth int) error {
	if len(sessions) == 0 {
		return nil
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	values := Resample(MovingAverage(CPSValues(sessions), window), TrendWidthFor(totalWidth))
	minVal, maxVal := valueRange(values)
	if _, err := fmt.Fprintf(w, "%s%s\n", trendLabel, Sparkline(values)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Range %.2f - %.2f CPS (window %d)\n", minVal, maxVal, window)
	return err
}

func valueRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
