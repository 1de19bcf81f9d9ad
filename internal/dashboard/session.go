// Package dashboard holds the live dashboard session: one fetch-and-render
// cycle per tick, the LED1 override, the LED2 alert and its
// edge-triggered transition log, and the sliding chart window.
package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/luki/sensordash/internal/alert"
	"github.com/luki/sensordash/internal/api"
	"github.com/luki/sensordash/internal/history"
	"github.com/luki/sensordash/internal/sensor"
)

// PollInterval is the fixed refresh cadence.
const PollInterval = 1 * time.Second

// logTimeout bounds a single LED2 transition log request.
const logTimeout = 5 * time.Second

// logQueueSize is how many LED2 transitions may wait for the log worker.
const logQueueSize = 32

var (
	// ErrCycleInFlight is returned by Cycle while an earlier cycle is
	// still waiting on the backend.
	ErrCycleInFlight = errors.New("previous cycle still in flight")
	// ErrToggleInFlight is returned by Toggle while another toggle runs.
	ErrToggleInFlight = errors.New("led1 toggle already in flight")
	// ErrToggleRejected means the backend answered without success.
	ErrToggleRejected = errors.New("backend rejected led1 change")
)

// API is the part of the sensor backend the session needs.
type API interface {
	Latest(ctx context.Context) (api.Snapshot, error)
	SetLED1(ctx context.Context, status string) (bool, error)
	LogLED2(ctx context.Context, status string) error
}

// Session owns all mutable dashboard state. Construct it once and pass
// it to every poll and toggle.
type Session struct {
	id     string
	api    API
	alarm  alert.Alarm
	log    *slog.Logger
	now    func() time.Time
	window *history.Window

	mu       sync.Mutex
	frame    Frame
	override string // LED1 value set by the user, "" until the first successful toggle
	lastLED2 string
	seenLED2 bool

	polling  atomic.Bool
	toggling atomic.Bool

	// LED2 transitions are posted by a single worker in FIFO order.
	logMu   sync.Mutex
	closed  bool
	queue   chan string
	pending sync.WaitGroup
	done    chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for chart labels.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithCapacity sets the number of points kept on the chart.
func WithCapacity(n int) Option {
	return func(s *Session) { s.window = history.NewWindow(n) }
}

// NewSession creates a dashboard session.
func NewSession(client API, alarm alert.Alarm, logger *slog.Logger, opts ...Option) *Session {
	if alarm == nil {
		alarm = alert.NewBell(io.Discard)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:     uuid.NewString(),
		api:    client,
		alarm:  alarm,
		now:    time.Now,
		window: history.NewWindow(history.DefaultCapacity),
		frame:  initialFrame(),
		queue:  make(chan string, logQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.With("session", s.id)
	go s.logWorker()
	return s
}

// ID returns the session identifier attached to every log line.
func (s *Session) ID() string {
	return s.id
}

// Frame returns the current display state.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Override returns the LED1 override and whether one is set.
func (s *Session) Override() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.override, s.override != ""
}

// LastLED2 returns the last observed LED2 status and whether any was seen.
func (s *Session) LastLED2() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLED2, s.seenLED2
}

// Cycle runs one fetch-and-render pass and returns the new frame. On any
// error the previous frame is returned unchanged. Errors are logged here;
// callers only use them for status display.
func (s *Session) Cycle(ctx context.Context) (Frame, error) {
	if !s.polling.CompareAndSwap(false, true) {
		s.log.Debug("skipping tick, previous cycle still running")
		return s.Frame(), ErrCycleInFlight
	}
	defer s.polling.Store(false)

	snap, err := s.api.Latest(ctx)
	if err != nil {
		var serr *api.ServerError
		if errors.As(err, &serr) {
			s.log.Info("backend has no reading", "error", serr.Message)
		} else {
			s.log.Error("fetch failed", "error", err)
		}
		return s.Frame(), err
	}

	reading := sensor.Reading{
		Temperature: sensor.ParseField(snap.Temperature),
		Humidity:    sensor.ParseField(snap.Humidity),
		Lux:         sensor.ParseField(snap.Lux),
		Time:        s.now(),
	}
	led2 := statusOrOff(snap.LED2)

	s.mu.Lock()
	f := s.frame
	f.Reading = reading
	f.Temperature = sensor.Temperature.Format(reading.Temperature)
	f.Humidity = sensor.Humidity.Format(reading.Humidity)
	f.Light = sensor.Light.Format(reading.Lux)
	f.ServerLED1 = statusOrOff(snap.LED1)
	if s.override == "" {
		f.LED1 = f.ServerLED1
		f.LED1Overridden = false
	} else {
		f.LED1 = s.override
		f.LED1Overridden = true
	}
	f.LED2 = led2
	f.Alert = led2 == api.StatusOn

	changed := !s.seenLED2 || led2 != s.lastLED2
	if changed {
		s.lastLED2 = led2
		s.seenLED2 = true
	}

	s.window.Push(reading.Label(), reading)
	f.Chart = s.window.Snapshot()
	f.Updated = reading.Time
	f.Cycles++
	s.frame = f
	s.mu.Unlock()

	if f.Alert {
		if err := s.alarm.Play(); err != nil {
			s.log.Warn("cannot play alert sound", "error", err)
		}
	} else {
		s.alarm.Stop()
	}

	if changed {
		s.logTransition(led2)
	}

	return f, nil
}

// logTransition queues an LED2 change without blocking the cycle.
func (s *Session) logTransition(status string) {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	if s.closed {
		s.log.Warn("session closed, led2 transition not logged", "led2", status)
		return
	}
	s.pending.Add(1)
	s.queue <- status
}

func (s *Session) logWorker() {
	defer close(s.done)

	for status := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
		err := s.api.LogLED2(ctx, status)
		cancel()

		if err != nil {
			s.log.Warn("led2 transition log failed", "led2", status, "error", err)
		} else {
			s.log.Info("led2 transition logged", "led2", status)
		}
		s.pending.Done()
	}
}

// Toggle requests the opposite of the LED1 state currently displayed and
// returns the requested state. The override and displayed text change
// only when the backend acknowledges; a refusal returns ErrToggleRejected.
func (s *Session) Toggle(ctx context.Context) (string, error) {
	if !s.toggling.CompareAndSwap(false, true) {
		return "", ErrToggleInFlight
	}
	defer s.toggling.Store(false)

	s.mu.Lock()
	requested := Opposite(s.frame.LED1)
	s.mu.Unlock()

	ok, err := s.api.SetLED1(ctx, requested)
	if err != nil {
		s.log.Error("toggle led1 failed", "requested", requested, "error", err)
		return requested, err
	}
	if !ok {
		s.log.Warn("backend rejected led1 change", "requested", requested)
		return requested, ErrToggleRejected
	}

	s.mu.Lock()
	s.override = requested
	s.frame.LED1 = requested
	s.frame.LED1Overridden = true
	s.mu.Unlock()

	s.log.Info("led1 switched", "led1", requested)
	return requested, nil
}

// Wait blocks until every queued LED2 log request has been sent. Call it
// between cycles; use Close on shutdown.
func (s *Session) Wait() {
	s.pending.Wait()
}

// Close stops accepting LED2 transitions and blocks until the queued ones
// have been sent. Cycles after Close still render but log nothing.
func (s *Session) Close() {
	s.logMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.logMu.Unlock()
	<-s.done
}

// Opposite returns the LED state a toggle should request given the
// displayed text: "ON" turns off, anything else turns on.
func Opposite(displayed string) string {
	if strings.TrimSpace(displayed) == api.StatusOn {
		return api.StatusOff
	}
	return api.StatusOn
}

func statusOrOff(s string) string {
	if s == "" {
		return api.StatusOff
	}
	return s
}
