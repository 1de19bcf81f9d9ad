// Package simulator is an in-memory development backend for the sensor
// dashboard. It serves the same HTTP API as the device backend and is fed
// either by a random-walk generator or by readings relayed over MQTT.
package simulator

import (
	"strings"
	"sync"
	"time"
)

// maxRecords bounds every in-memory history.
const maxRecords = 100

const (
	statusOn  = "ON"
	statusOff = "OFF"
)

// LEDRecord is one LED state change.
type LEDRecord struct {
	LED1 string
	LED2 string
	Time time.Time
}

// SensorRecord is one ingested reading together with the LED state that
// was current when it arrived.
type SensorRecord struct {
	Temperature float64
	Humidity    float64
	Lux         float64
	Time        time.Time
	LEDs        LEDRecord
}

// Transition is one LED2 change reported by a dashboard.
type Transition struct {
	LED2 string
	Time time.Time
}

// State holds the backend's readings and LED history.
type State struct {
	mu          sync.Mutex
	threshold   float64
	now         func() time.Time
	sensors     []SensorRecord
	leds        []LEDRecord
	transitions []Transition
	listeners   []func(LEDRecord)
}

// NewState creates an empty backend. LED2 is switched on for readings
// whose temperature is above threshold.
func NewState(threshold float64, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{threshold: threshold, now: now}
}

// OnLEDChange registers fn to be called with every new LED state.
func (s *State) OnLEDChange(fn func(LEDRecord)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Ingest stores a reading. LED2 follows the temperature threshold and
// LED1 keeps its current value.
func (s *State) Ingest(temperature, humidity, lux float64) SensorRecord {
	s.mu.Lock()

	now := s.now()
	led := LEDRecord{
		LED1: s.currentLocked().LED1,
		LED2: statusOff,
		Time: now,
	}
	if temperature > s.threshold {
		led.LED2 = statusOn
	}

	rec := SensorRecord{
		Temperature: temperature,
		Humidity:    humidity,
		Lux:         lux,
		Time:        now,
		LEDs:        led,
	}
	s.sensors = appendBounded(s.sensors, rec)
	s.leds = appendBounded(s.leds, led)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, led)
	return rec
}

// SetLEDs updates either LED. Nil values keep the current state.
func (s *State) SetLEDs(led1, led2 *string) LEDRecord {
	s.mu.Lock()

	cur := s.currentLocked()
	led := LEDRecord{LED1: cur.LED1, LED2: cur.LED2, Time: s.now()}
	if led1 != nil {
		led.LED1 = strings.ToUpper(*led1)
	}
	if led2 != nil {
		led.LED2 = strings.ToUpper(*led2)
	}
	s.leds = appendBounded(s.leds, led)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, led)
	return led
}

// Latest returns the newest reading, or false when nothing was ingested.
func (s *State) Latest() (SensorRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sensors) == 0 {
		return SensorRecord{}, false
	}
	return s.sensors[len(s.sensors)-1], true
}

// CurrentLEDs returns the newest LED state.
func (s *State) CurrentLEDs() LEDRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// LogTransition records an LED2 change reported by a dashboard.
func (s *State) LogTransition(led2 string) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Transition{LED2: strings.ToUpper(led2), Time: s.now()}
	s.transitions = appendBounded(s.transitions, t)
	return t
}

// SensorHistory returns up to n readings, newest first.
func (s *State) SensorHistory(n int) []SensorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.sensors, n)
}

// LEDHistory returns up to n LED states, newest first.
func (s *State) LEDHistory(n int) []LEDRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.leds, n)
}

// Transitions returns up to n logged LED2 changes, newest first.
func (s *State) Transitions(n int) []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.transitions, n)
}

func (s *State) currentLocked() LEDRecord {
	if len(s.leds) == 0 {
		return LEDRecord{LED1: statusOff, LED2: statusOff}
	}
	return s.leds[len(s.leds)-1]
}

func notify(listeners []func(LEDRecord), led LEDRecord) {
	for _, fn := range listeners {
		fn(led)
	}
}

func appendBounded[T any](s []T, v T) []T {
	if len(s) >= maxRecords {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

func newestFirst[T any](s []T, n int) []T {
	if n <= 0 || n > len(s) {
		n = len(s)
	}
	out := make([]T, 0, n)
	for i := len(s) - 1; i >= len(s)-n; i-- {
		out = append(out, s[i])
	}
	return out
}
