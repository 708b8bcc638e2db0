// Package session implements the click test lifecycle and scoring.
//
// A Session moves Idle -> Running -> Finished. Time only advances through
// Tick; the caller owns the timer that delivers ticks. Operations requested
// in the wrong phase are no-ops.
package session

import (
	"math"

	"github.com/verte-zerg/tuicps/internal/model"
)

// Phase is the lifecycle state of a session.
type Phase int

// Session phases.
const (
	Idle Phase = iota
	Running
	Finished
)

// finishEpsilon absorbs float drift so that n steps of duration/n always finish.
const finishEpsilon = 1e-9

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Session holds the state of the single live click test.
type Session struct {
	duration  int
	clicks    int
	remaining float64
	cps       float64
	phase     Phase
}

// Snapshot is a read-only copy of the session fields.
type Snapshot struct {
	Phase     Phase
	Duration  int
	Clicks    int
	Remaining float64
	CPS       float64
}

// New returns an idle session. Unknown durations fall back to the default mode.
func New(duration int) *Session {
	if !model.IsDuration(duration) {
		duration = model.DefaultDuration
	}
	return &Session{duration: duration}
}

// CPS returns clicks divided by seconds, or 0 when seconds is not positive.
func CPS(clicks int, seconds float64) float64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return float64(clicks) / seconds
}

// SelectDuration changes the test length. It is ignored while running or
// for lengths that are not a known mode. A finished session returns to idle.
func (s *Session) SelectDuration(d int) bool {
	if s.phase == Running || !model.IsDuration(d) {
		return false
	}
	s.duration = d
	if s.phase == Finished {
		s.clear()
	}
	return true
}

// Start begins a new run from idle or finished.
func (s *Session) Start() bool {
	if s.phase == Running {
		return false
	}
	s.clicks = 0
	s.remaining = float64(s.duration)
	s.cps = 0
	s.phase = Running
	return true
}

// RegisterClick counts one click. Clicks outside a run are dropped.
func (s *Session) RegisterClick() bool {
	if s.phase != Running {
		return false
	}
	s.clicks++
	return true
}

// Tick advances the countdown by delta seconds and reports whether this tick
// finished the run.
func (s *Session) Tick(delta float64) bool {
	if s.phase != Running || !(delta > 0) || math.IsInf(delta, 0) {
		return false
	}
	s.remaining -= delta
	if s.remaining <= finishEpsilon {
		s.remaining = 0
		s.cps = CPS(s.clicks, float64(s.duration))
		s.phase = Finished
		return true
	}
	s.cps = CPS(s.clicks, float64(s.duration)-s.remaining)
	return false
}

// Reset abandons the current run or result and returns to idle.
// The selected duration is kept.
func (s *Session) Reset() {
	s.clear()
}

func (s *Session) clear() {
	s.clicks = 0
	s.remaining = 0
	s.cps = 0
	s.phase = Idle
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Duration returns the selected test length in seconds.
func (s *Session) Duration() int { return s.duration }

// Clicks returns the clicks registered in the current run.
func (s *Session) Clicks() int { return s.clicks }

// Remaining returns the seconds left in the current run.
func (s *Session) Remaining() float64 { return s.remaining }

// CPS returns the live or final clicks per second.
func (s *Session) CPS() float64 { return s.cps }

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Phase:     s.phase,
		Duration:  s.duration,
		Clicks:    s.clicks,
		Remaining: s.remaining,
		CPS:       s.cps,
	}
}
