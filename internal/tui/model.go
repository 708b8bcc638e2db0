// Package tui provides the Bubble Tea click test interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuicps/internal/model"
	"github.com/verte-zerg/tuicps/internal/scores"
	"github.com/verte-zerg/tuicps/internal/session"
)

const (
	windowTitle         = "CPS Test"
	defaultTickInterval = 100 * time.Millisecond
)

// HistoryStore records finished sessions.
type HistoryStore interface {
	InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error)
	ListSessions(ctx context.Context, cfg model.HistoryConfig) ([]model.SessionRecord, error)
}

// tickMsg advances the run that was started as generation gen.
type tickMsg struct {
	gen int
}

type modeTotals struct {
	count int
	sum   float64
}

// Model implements the Bubble Tea click test UI.
type Model struct {
	config  model.Config
	bests   scores.Recorder
	history HistoryStore
	session *session.Session

	keys keyMap
	help help.Model

	width  int
	height int
	// surfaceRows is where the click surface was last drawn.
	surfaceRows rowSpan

	// gen changes whenever the timer must stop; ticks from older runs are dropped.
	gen       int
	startedAt time.Time
	newBest   bool

	totals map[int]modeTotals
	now    func() time.Time
}

// NewModel constructs a click test model. bests should already be loaded.
func NewModel(cfg model.Config, bests scores.Recorder, history HistoryStore) *Model {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	m := &Model{
		config:  cfg,
		bests:   bests,
		history: history,
		session: session.New(cfg.Duration),
		keys:    newKeyMap(),
		help:    help.New(),
		totals:  map[int]modeTotals{},
		now:     time.Now,
	}
	m.syncKeys()
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle(windowTitle)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.surfaceRows = rowSpan{}
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case tea.MouseMsg:
		if !m.config.Mouse {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		// Mode buttons are chosen from the keyboard; only the surface counts.
		if m.surfaceRows.known() && !m.surfaceRows.contains(msg.Y) {
			return m, nil
		}
		return m, m.press()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	defer m.syncKeys()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopTimer()
		return tea.Quit
	case key.Matches(msg, m.keys.Click):
		return m.press()
	case key.Matches(msg, m.keys.Reset):
		m.session.Reset()
		m.stopTimer()
		m.newBest = false
	case key.Matches(msg, m.keys.Mode):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(model.Durations) {
			m.selectDuration(model.Durations[idx])
		}
	case key.Matches(msg, m.keys.Prev):
		m.cycleDuration(-1)
	case key.Matches(msg, m.keys.Next):
		m.cycleDuration(1)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// press is the primary action: start a run, or count a click during one.
func (m *Model) press() tea.Cmd {
	defer m.syncKeys()
	if m.session.Phase() == session.Running {
		m.session.RegisterClick()
		return nil
	}
	if !m.session.Start() {
		return nil
	}
	m.gen++
	m.startedAt = m.now()
	m.newBest = false
	return tickCmd(m.config.TickInterval, m.gen)
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen != m.gen || m.session.Phase() != session.Running {
		return nil
	}
	if m.session.Tick(m.config.TickInterval.Seconds()) {
		m.finishSession()
		m.syncKeys()
		return nil
	}
	return tickCmd(m.config.TickInterval, m.gen)
}

func tickCmd(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) stopTimer() {
	m.gen++
}

func (m *Model) selectDuration(d int) {
	if m.session.SelectDuration(d) {
		m.newBest = false
	}
}

func (m *Model) cycleDuration(step int) {
	idx := model.DurationIndex(m.session.Duration()) + step
	if idx < 0 || idx >= len(model.Durations) {
		return
	}
	m.selectDuration(model.Durations[idx])
}

// syncKeys enables only the bindings that apply in the current phase.
func (m *Model) syncKeys() {
	phase := m.session.Phase()
	running := phase == session.Running
	m.keys.Mode.SetEnabled(!running)
	m.keys.Prev.SetEnabled(!running)
	m.keys.Next.SetEnabled(!running)
	m.keys.Reset.SetEnabled(phase != session.Idle)
}

func (m *Model) finishSession() {
	snap := m.session.Snapshot()
	ctx := context.Background()

	newBest, err := m.bests.RecordIfBest(ctx, snap.Duration, snap.CPS)
	if err != nil {
		logErrf("failed to save personal best: %v\n", err)
	}
	m.newBest = newBest

	rec := model.SessionRecord{
		StartedAt: m.startedAt,
		EndedAt:   m.now(),
		Duration:  snap.Duration,
		Clicks:    snap.Clicks,
		CPS:       snap.CPS,
		NewBest:   newBest,
	}
	if m.history != nil {
		if _, err := m.history.InsertSession(ctx, rec); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	}
	t := m.totals[snap.Duration]
	t.count++
	t.sum += snap.CPS
	m.totals[snap.Duration] = t
}

func (m *Model) loadFooterStats() {
	if m.history == nil {
		return
	}
	sessions, err := m.history.ListSessions(context.Background(), model.HistoryConfig{})
	if err != nil {
		logErrf("failed to load session history: %v\n", err)
		return
	}
	for _, s := range sessions {
		t := m.totals[s.Duration]
		t.count++
		t.sum += s.CPS
		m.totals[s.Duration] = t
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
