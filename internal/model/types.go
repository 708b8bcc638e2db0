// Package model defines shared data structures.
package model

import "time"

// Durations lists the selectable test lengths in seconds, in display order.
var Durations = []int{1, 5, 10, 30, 60}

// DefaultDuration is the mode selected when nothing else is configured.
const DefaultDuration = 10

// IsDuration reports whether d is one of the selectable test lengths.
func IsDuration(d int) bool {
	for _, v := range Durations {
		if v == d {
			return true
		}
	}
	return false
}

// DurationIndex returns the position of d in Durations, or -1.
func DurationIndex(d int) int {
	for i, v := range Durations {
		if v == d {
			return i
		}
	}
	return -1
}

// Config defines click test settings.
type Config struct {
	Duration     int
	TickInterval time.Duration
	Mouse        bool
}

// HistoryConfig defines filters and options for history output.
// A zero Duration means all modes.
type HistoryConfig struct {
	Duration    int
	Last        int
	CurveWindow int
}

// SessionRecord captures a finished click test.
type SessionRecord struct {
	ID        int64
	StartedAt time.Time
	EndedAt   time.Time
	Duration  int
	Clicks    int
	CPS       float64
	NewBest   bool
}

// Best is the personal best for one duration mode.
type Best struct {
	Duration int
	CPS      float64
}
