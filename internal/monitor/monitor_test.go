package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/sensordash/internal/api"
	"github.com/luki/sensordash/internal/dashboard"
)

type stubAPI struct {
	mu     sync.Mutex
	snap   api.Snapshot
	err    error
	ledOK  bool
	ledErr error
}

func (s *stubAPI) Latest(context.Context) (api.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.err
}

func (s *stubAPI) SetLED1(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledOK, s.ledErr
}

func (s *stubAPI) LogLED2(context.Context, string) error { return nil }

func (s *stubAPI) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func newTestModel(t *testing.T, stub *stubAPI) Model {
	t.Helper()
	session := dashboard.NewSession(stub, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(session.Close)

	m := New(session, "localhost:5000")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func snapshot(temp, led1, led2 string) api.Snapshot {
	return api.Snapshot{
		Temperature: json.RawMessage(temp),
		Humidity:    json.RawMessage(`55`),
		Lux:         json.RawMessage(`320`),
		LED1:        led1,
		LED2:        led2,
	}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func assertView(t *testing.T, view string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(view, w) {
			t.Errorf("view missing %q", w)
		}
	}
}

func refuteView(t *testing.T, view string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(view, u) {
			t.Errorf("view unexpectedly contains %q", u)
		}
	}
}

func TestViewBeforeData(t *testing.T) {
	bare := dashboard.NewSession(&stubAPI{}, nil, nil)
	t.Cleanup(bare.Close)
	if got := New(bare, "").View(); got != "  Initializing..." {
		t.Errorf("View before size = %q", got)
	}

	m := newTestModel(t, &stubAPI{})
	assertView(t, m.View(), "SENSOR DASHBOARD", "Waiting for sensor data...", "-- °C")
}

func TestCycleUpdatesView(t *testing.T) {
	stub := &stubAPI{snap: snapshot(`"25"`, "ON", "OFF")}
	m := newTestModel(t, stub)

	m = run(t, m, pollCmd(m.session))
	view := m.View()

	assertView(t, view, "25 °C", "55 %", "320 lux", "LED1 ON", "LED2 OFF", "Temp (°C)")
	refuteView(t, view, "⚠")
}

func TestAlertView(t *testing.T) {
	stub := &stubAPI{snap: snapshot(`"abc"`, "OFF", "ON")}
	m := newTestModel(t, stub)

	m = run(t, m, pollCmd(m.session))
	assertView(t, m.View(), "⚠", "-- °C")
}

func TestCycleErrorKeepsFrame(t *testing.T) {
	stub := &stubAPI{snap: snapshot(`21`, "OFF", "OFF")}
	m := newTestModel(t, stub)
	m = run(t, m, pollCmd(m.session))

	stub.fail(errors.New("connection refused"))
	m = run(t, m, pollCmd(m.session))
	assertView(t, m.View(), "ERROR: connection refused", "21 °C")

	next, _ := m.Update(cycleMsg{frame: m.frame, err: dashboard.ErrCycleInFlight})
	if next.(Model).err != m.err {
		t.Error("skipped tick changed the error state")
	}
}

func TestNoDataYetIsNotAnError(t *testing.T) {
	stub := &stubAPI{err: &api.ServerError{Message: "No data found"}}
	m := newTestModel(t, stub)

	m = run(t, m, pollCmd(m.session))
	if m.err != nil {
		t.Errorf("err = %v, want nil while the backend has no reading", m.err)
	}
	view := m.View()
	assertView(t, view, "Waiting for sensor data...")
	refuteView(t, view, "ERROR")
}

func TestToggleRejectedShowsBlockingNotice(t *testing.T) {
	stub := &stubAPI{snap: snapshot(`21`, "OFF", "OFF"), ledOK: false}
	m := newTestModel(t, stub)
	m = run(t, m, pollCmd(m.session))

	next, cmd := m.Update(key("t"))
	m = next.(Model)
	if !m.toggling {
		t.Error("toggling = false while the request runs")
	}
	m = run(t, m, cmd)

	if m.notice != toggleFailedNotice {
		t.Fatalf("notice = %q, want %q", m.notice, toggleFailedNotice)
	}
	assertView(t, m.View(), toggleFailedNotice)
	refuteView(t, m.View(), "SENSOR DASHBOARD")

	// Other keys are swallowed while the notice is up.
	next, cmd = m.Update(key("t"))
	m = next.(Model)
	if cmd != nil || m.toggling {
		t.Error("toggle started behind the notice")
	}

	next, _ = m.Update(key("enter"))
	m = next.(Model)
	if m.notice != "" {
		t.Errorf("notice = %q after enter", m.notice)
	}
	assertView(t, m.View(), "LED1 OFF")
}

func TestToggleSuccess(t *testing.T) {
	stub := &stubAPI{snap: snapshot(`21`, "OFF", "OFF"), ledOK: true}
	m := newTestModel(t, stub)
	m = run(t, m, pollCmd(m.session))

	next, cmd := m.Update(key("t"))
	m = run(t, next.(Model), cmd)

	if m.notice != "" {
		t.Errorf("notice = %q after a successful toggle", m.notice)
	}
	if m.frame.LED1 != "ON" {
		t.Errorf("LED1 = %q, want ON", m.frame.LED1)
	}
	assertView(t, m.View(), "LED1 ON manual")

	m = run(t, m, pollCmd(m.session))
	if m.frame.LED1 != "ON" {
		t.Errorf("LED1 = %q after poll, override should mask the backend", m.frame.LED1)
	}
}

func TestLateCycleKeepsToggle(t *testing.T) {
	stub := &stubAPI{snap: snapshot(`21`, "OFF", "OFF"), ledOK: true}
	m := newTestModel(t, stub)

	// The cycle renders first but its message arrives after the toggle.
	stale := pollCmd(m.session)()
	next, cmd := m.Update(key("t"))
	m = run(t, next.(Model), cmd)

	next, _ = m.Update(stale)
	m = next.(Model)
	if m.frame.LED1 != "ON" || !m.frame.LED1Overridden {
		t.Errorf("LED1 = %q overridden=%v, want ON overridden", m.frame.LED1, m.frame.LED1Overridden)
	}
	assertView(t, m.View(), "LED1 ON manual")
}

func TestToggleNetworkError(t *testing.T) {
	stub := &stubAPI{ledErr: errors.New("timeout")}
	m := newTestModel(t, stub)

	next, cmd := m.Update(key("l"))
	m = run(t, next.(Model), cmd)

	if m.notice != "" {
		t.Errorf("notice = %q for a network error", m.notice)
	}
	if m.err == nil || !strings.HasPrefix(m.err.Error(), "toggle led1") {
		t.Errorf("err = %v, want toggle led1 prefix", m.err)
	}
}

func TestPause(t *testing.T) {
	m := newTestModel(t, &stubAPI{})

	next, _ := m.Update(key("p"))
	m = next.(Model)
	if !m.paused {
		t.Fatal("paused = false after p")
	}
	assertView(t, m.View(), "PAUSED")

	next, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Error("paused tick did not reschedule")
	}
	if n := next.(Model).frame.Cycles; n != 0 {
		t.Errorf("Cycles = %d while paused", n)
	}

	next, _ = m.Update(key(" "))
	if next.(Model).paused {
		t.Error("space did not resume")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &stubAPI{})

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
