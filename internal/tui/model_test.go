package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicps/internal/model"
	"github.com/verte-zerg/tuicps/internal/scores"
	"github.com/verte-zerg/tuicps/internal/session"
)

type fakeBackend struct {
	data map[string]string
	err  error
}

func (b *fakeBackend) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *fakeBackend) Put(_ context.Context, key, value string) error {
	if b.err != nil {
		return b.err
	}
	b.data[key] = value
	return nil
}

func (b *fakeBackend) Delete(_ context.Context, key string) error {
	delete(b.data, key)
	return nil
}

type fakeHistory struct {
	records []model.SessionRecord
}

func (h *fakeHistory) InsertSession(_ context.Context, rec model.SessionRecord) (int64, error) {
	h.records = append(h.records, rec)
	return int64(len(h.records)), nil
}

func (h *fakeHistory) ListSessions(_ context.Context, _ model.HistoryConfig) ([]model.SessionRecord, error) {
	return h.records, nil
}

func newTestModel(t *testing.T, duration int, stored string) (*Model, *fakeBackend, *fakeHistory) {
	t.Helper()
	backend := &fakeBackend{data: map[string]string{}}
	if stored != "" {
		backend.data[scores.Key] = stored
	}
	bests := scores.New(backend)
	if _, err := bests.Load(context.Background()); err != nil {
		t.Fatalf("load bests: %v", err)
	}
	history := &fakeHistory{}
	cfg := model.Config{Duration: duration, TickInterval: 100 * time.Millisecond, Mouse: true}
	m := NewModel(cfg, bests, history)
	m.now = func() time.Time { return time.Unix(1700000000, 0) }
	return m, backend, history
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func spaceKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func leftClick() tea.MouseMsg {
	return tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func leftClickAt(y int) tea.MouseMsg {
	return tea.MouseMsg{X: 40, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

// labelRow returns the screen row of the first line of view containing text.
func labelRow(t *testing.T, view, text string) int {
	t.Helper()
	for i, line := range strings.Split(view, "\n") {
		if strings.Contains(line, text) {
			return i
		}
	}
	t.Fatalf("view has no line containing %q", text)
	return -1
}

// runTicks delivers n ticks for the current generation.
func runTicks(m *Model, n int) {
	for i := 0; i < n; i++ {
		m.Update(tickMsg{gen: m.gen})
	}
}

func TestPressStartsThenCounts(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	_, cmd := m.Update(spaceKey())
	if cmd == nil {
		t.Fatalf("expected tick command on start")
	}
	if m.session.Phase() != session.Running {
		t.Fatalf("expected running, got %s", m.session.Phase())
	}
	if m.session.Clicks() != 0 {
		t.Fatalf("start press must not count as a click")
	}
	_, cmd = m.Update(leftClick())
	if cmd != nil {
		t.Fatalf("click should not schedule a tick")
	}
	m.Update(spaceKey())
	if m.session.Clicks() != 2 {
		t.Fatalf("expected 2 clicks, got %d", m.session.Clicks())
	}
}

func TestMouseIgnoredWhenDisabled(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	m.config.Mouse = false
	m.Update(leftClick())
	if m.session.Phase() != session.Idle {
		t.Fatalf("expected idle, got %s", m.session.Phase())
	}
}

func TestMouseCountsOnlyOnSurface(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 60})
	view := m.View()

	modesRow := labelRow(t, view, "10s")
	m.Update(leftClickAt(0))
	m.Update(leftClickAt(modesRow))
	if m.session.Phase() != session.Idle {
		t.Fatalf("clicks outside the surface must not start, got %s", m.session.Phase())
	}

	m.Update(leftClickAt(labelRow(t, view, "Click to Start")))
	if m.session.Phase() != session.Running {
		t.Fatalf("surface click should start, got %s", m.session.Phase())
	}

	view = m.View()
	m.Update(leftClickAt(labelRow(t, view, "CLICK!")))
	m.Update(leftClickAt(m.surfaceRows.top))
	m.Update(leftClickAt(m.surfaceRows.bottom - 1))
	m.Update(leftClickAt(m.surfaceRows.bottom))
	m.Update(leftClickAt(m.surfaceRows.top - 1))
	if m.session.Clicks() != 3 {
		t.Fatalf("expected 3 surface clicks, got %d", m.session.Clicks())
	}
}

func TestSurfaceRowsMatchPlacedView(t *testing.T) {
	for _, height := range []int{2, 30, 31, 60} {
		m, _, _ := newTestModel(t, 10, "")
		m.Update(tea.WindowSizeMsg{Width: 80, Height: height})
		lines := strings.Split(m.View(), "\n")
		if !m.surfaceRows.known() {
			t.Fatalf("height %d: surface rows unknown after render", height)
		}
		if m.surfaceRows.bottom-m.surfaceRows.top != surfaceHeight+2 {
			t.Fatalf("height %d: unexpected surface span %+v", height, m.surfaceRows)
		}
		label := -1
		for i, line := range lines {
			if strings.Contains(line, "Click to Start") {
				label = i
				break
			}
		}
		if label >= 0 && !m.surfaceRows.contains(label) {
			t.Fatalf("height %d: label row %d outside %+v", height, label, m.surfaceRows)
		}
		if m.surfaceRows.top < len(lines) && !strings.ContainsAny(lines[m.surfaceRows.top], "╭┏") {
			t.Fatalf("height %d: row %d is not the surface border: %q", height, m.surfaceRows.top, lines[m.surfaceRows.top])
		}
	}
}

func TestResizeForgetsSurfaceRows(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 60})
	m.View()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if m.surfaceRows.known() {
		t.Fatalf("resize should drop the old layout")
	}
	m.Update(leftClickAt(0))
	if m.session.Phase() != session.Running {
		t.Fatalf("click before the next render should count, got %s", m.session.Phase())
	}
}

func TestCenterOffsetMatchesPlace(t *testing.T) {
	for _, tc := range []struct{ area, content int }{{10, 4}, {11, 4}, {4, 4}, {3, 9}} {
		placed := lipgloss.PlaceVertical(tc.area, lipgloss.Center, strings.TrimSuffix(strings.Repeat("x\n", tc.content), "\n"))
		want := strings.Index(placed, "x")
		want = strings.Count(placed[:want], "\n")
		if got := centerOffset(tc.area, tc.content); got != want {
			t.Fatalf("area %d content %d: expected %d, got %d", tc.area, tc.content, want, got)
		}
	}
}

func TestNonLeftMouseIgnored(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	m.Update(tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.session.Phase() != session.Idle {
		t.Fatalf("expected idle, got %s", m.session.Phase())
	}
}

func TestTickReschedulesUntilFinished(t *testing.T) {
	m, _, _ := newTestModel(t, 1, "")
	m.Update(spaceKey())
	for i := 0; i < 9; i++ {
		_, cmd := m.Update(tickMsg{gen: m.gen})
		if cmd == nil {
			t.Fatalf("tick %d: expected reschedule", i)
		}
	}
	_, cmd := m.Update(tickMsg{gen: m.gen})
	if cmd != nil {
		t.Fatalf("expected timer to stop after finishing")
	}
	if m.session.Phase() != session.Finished {
		t.Fatalf("expected finished, got %s", m.session.Phase())
	}
}

func TestFinishRecordsBestAndHistory(t *testing.T) {
	m, backend, history := newTestModel(t, 10, `{"10":4.5}`)
	m.Update(spaceKey())
	for i := 0; i < 47; i++ {
		m.Update(leftClick())
	}
	runTicks(m, 100)

	if m.session.Phase() != session.Finished {
		t.Fatalf("expected finished, got %s", m.session.Phase())
	}
	if m.session.CPS() != 4.7 {
		t.Fatalf("expected 4.7 CPS, got %v", m.session.CPS())
	}
	if !m.newBest {
		t.Fatalf("expected new best flag")
	}
	if got := scores.Decode(backend.data[scores.Key]); got[10] != 4.7 {
		t.Fatalf("expected persisted best 4.7, got %v", got)
	}
	if len(history.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.records))
	}
	rec := history.records[0]
	if rec.Duration != 10 || rec.Clicks != 47 || rec.CPS != 4.7 || !rec.NewBest {
		t.Fatalf("unexpected record: %+v", rec)
	}

	view := m.View()
	for _, want := range []string{"Test Complete!", "New Personal Best!", "Click to Play Again", "4.70", "10 seconds: 4.70 CPS"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestWorseResultIsNotBest(t *testing.T) {
	m, _, history := newTestModel(t, 1, `{"1":9.5}`)
	m.Update(spaceKey())
	for i := 0; i < 3; i++ {
		m.Update(spaceKey())
	}
	runTicks(m, 10)
	if m.newBest {
		t.Fatalf("did not expect new best")
	}
	if best, _ := m.bests.Get(1); best != 9.5 {
		t.Fatalf("expected best to stay 9.5, got %v", best)
	}
	if len(history.records) != 1 || history.records[0].NewBest {
		t.Fatalf("unexpected history: %+v", history.records)
	}
	if strings.Contains(m.View(), "New Personal Best!") {
		t.Fatalf("view should not show new best")
	}
}

func TestSaveFailureIsNotFatal(t *testing.T) {
	m, backend, history := newTestModel(t, 1, "")
	backend.err = errors.New("read-only")
	m.Update(spaceKey())
	m.Update(spaceKey())
	runTicks(m, 10)
	if m.session.Phase() != session.Finished {
		t.Fatalf("expected finished, got %s", m.session.Phase())
	}
	if m.newBest {
		t.Fatalf("failed save must not report a new best")
	}
	if len(history.records) != 1 {
		t.Fatalf("expected history to be recorded")
	}
}

func TestStaleTickIgnoredAfterReset(t *testing.T) {
	m, _, _ := newTestModel(t, 5, "")
	m.Update(spaceKey())
	staleGen := m.gen
	m.Update(keyRunes("r"))
	if m.session.Phase() != session.Idle {
		t.Fatalf("expected idle after reset, got %s", m.session.Phase())
	}
	m.Update(spaceKey())
	_, cmd := m.Update(tickMsg{gen: staleGen})
	if cmd != nil {
		t.Fatalf("stale tick must not reschedule")
	}
	if m.session.Remaining() != 5 {
		t.Fatalf("stale tick advanced the new run: %v", m.session.Remaining())
	}
}

func TestTickIgnoredWhenIdle(t *testing.T) {
	m, _, _ := newTestModel(t, 5, "")
	_, cmd := m.Update(tickMsg{gen: m.gen})
	if cmd != nil || m.session.Phase() != session.Idle {
		t.Fatalf("tick while idle must be a no-op")
	}
}

func TestQuitStopsTimer(t *testing.T) {
	m, _, _ := newTestModel(t, 5, "")
	m.Update(spaceKey())
	gen := m.gen
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if _, next := m.Update(tickMsg{gen: gen}); next != nil {
		t.Fatalf("tick after quit must not reschedule")
	}
}

func TestModeKeysIgnoredWhileRunning(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	m.Update(keyRunes("4"))
	if m.session.Duration() != 30 {
		t.Fatalf("expected 30s mode, got %d", m.session.Duration())
	}
	m.Update(spaceKey())
	m.Update(keyRunes("1"))
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.session.Duration() != 30 {
		t.Fatalf("mode changed while running: %d", m.session.Duration())
	}
}

func TestCycleDurationStopsAtEdges(t *testing.T) {
	m, _, _ := newTestModel(t, 1, "")
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.session.Duration() != 1 {
		t.Fatalf("expected to stay at 1s, got %d", m.session.Duration())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.session.Duration() != 5 {
		t.Fatalf("expected 5s, got %d", m.session.Duration())
	}
}

func TestSelectingModeClearsResult(t *testing.T) {
	m, _, _ := newTestModel(t, 1, "")
	m.Update(spaceKey())
	m.Update(spaceKey())
	runTicks(m, 10)
	if m.session.Phase() != session.Finished {
		t.Fatalf("expected finished")
	}
	m.Update(keyRunes("2"))
	if m.session.Phase() != session.Idle || m.session.Duration() != 5 {
		t.Fatalf("expected idle 5s, got %s %d", m.session.Phase(), m.session.Duration())
	}
	if m.newBest {
		t.Fatalf("new best flag should clear with the result")
	}
	if strings.Contains(m.View(), "Test Complete!") {
		t.Fatalf("result should be cleared")
	}
}

func TestSurfaceLabels(t *testing.T) {
	cases := map[session.Phase]string{
		session.Idle:     "Click to Start",
		session.Running:  "CLICK!",
		session.Finished: "Click to Play Again",
	}
	for phase, want := range cases {
		if got := surfaceLabel(phase); got != want {
			t.Fatalf("%s: expected %q, got %q", phase, want, got)
		}
	}
}

func TestLiveDisplayFormats(t *testing.T) {
	m, _, _ := newTestModel(t, 10, "")
	m.Update(spaceKey())
	for i := 0; i < 7; i++ {
		m.Update(spaceKey())
	}
	runTicks(m, 7)
	view := m.View()
	for _, want := range []string{"CLICK!", "9.3s", "10.00"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m, _, history := newTestModel(t, 10, "")
	history.records = []model.SessionRecord{
		{Duration: 10, CPS: 6.0},
		{Duration: 10, CPS: 7.0},
		{Duration: 5, CPS: 9.0},
	}
	m.totals = map[int]modeTotals{}
	m.loadFooterStats()
	out := m.renderFooter()
	for _, want := range []string{"Mode 10s", "Sessions 2", "Avg 6.50 CPS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}
