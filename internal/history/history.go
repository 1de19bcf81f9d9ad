// Package history provides the sliding chart window: a fixed number of
// labeled points per sensor series, oldest evicted first, with per-series
// min/peak/avg statistics.
package history

import (
	"math"

	"github.com/luki/sensordash/internal/sensor"
)

// DefaultCapacity is the number of points kept on the live chart.
const DefaultCapacity = 10

// Stats summarises the valid points of one series.
type Stats struct {
	Min   float64
	Peak  float64
	Avg   float64
	Count int // number of valid points
}

// Window stores labeled readings for every quantity. All series always
// have the same length as the label sequence.
type Window struct {
	labels []string
	series [][]sensor.Field // indexed by sensor.Quantity
	Max    int              // capacity
}

// NewWindow creates a chart window with the given capacity.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	qs := sensor.Quantities()
	w := &Window{
		labels: make([]string, 0, capacity),
		series: make([][]sensor.Field, len(qs)),
		Max:    capacity,
	}
	for _, q := range qs {
		w.series[q] = make([]sensor.Field, 0, capacity)
	}
	return w
}

// Push appends a reading under the given label. A full window drops its
// oldest label and the oldest value of every series first.
func (w *Window) Push(label string, r sensor.Reading) {
	if len(w.labels) >= w.Max {
		copy(w.labels, w.labels[1:])
		w.labels = w.labels[:len(w.labels)-1]
		for q := range w.series {
			s := w.series[q]
			copy(s, s[1:])
			w.series[q] = s[:len(s)-1]
		}
	}

	w.labels = append(w.labels, label)
	for _, q := range sensor.Quantities() {
		w.series[q] = append(w.series[q], r.Get(q))
	}
}

// Len returns the number of points currently stored.
func (w *Window) Len() int {
	return len(w.labels)
}

// Labels returns a copy of the label sequence, oldest first.
func (w *Window) Labels() []string {
	out := make([]string, len(w.labels))
	copy(out, w.labels)
	return out
}

// Values returns a copy of the series for q, oldest first.
func (w *Window) Values(q sensor.Quantity) []sensor.Field {
	if int(q) < 0 || int(q) >= len(w.series) {
		return nil
	}
	out := make([]sensor.Field, len(w.series[q]))
	copy(out, w.series[q])
	return out
}

// Last returns the most recent value for q.
func (w *Window) Last(q sensor.Quantity) sensor.Field {
	vals := w.Values(q)
	if len(vals) == 0 {
		return sensor.Field{}
	}
	return vals[len(vals)-1]
}

// Stats computes statistics over the valid points of q.
func (w *Window) Stats(q sensor.Quantity) Stats {
	return SeriesStats(w.Values(q))
}

// Snapshot returns an immutable copy of the window for rendering.
func (w *Window) Snapshot() Snapshot {
	s := Snapshot{
		Labels: w.Labels(),
		Series: make(map[sensor.Quantity][]sensor.Field, len(w.series)),
	}
	for _, q := range sensor.Quantities() {
		s.Series[q] = w.Values(q)
	}
	return s
}

// Snapshot is a point-in-time copy of a Window.
type Snapshot struct {
	Labels []string
	Series map[sensor.Quantity][]sensor.Field
}

// Len returns the number of points in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Labels)
}

// SeriesStats computes min/peak/avg over the valid values.
func SeriesStats(vals []sensor.Field) Stats {
	st := Stats{Min: math.MaxFloat64, Peak: -math.MaxFloat64}
	sum := 0.0
	for _, v := range vals {
		if !v.Valid {
			continue
		}
		f := float64(v.Value)
		if f < st.Min {
			st.Min = f
		}
		if f > st.Peak {
			st.Peak = f
		}
		sum += f
		st.Count++
	}
	if st.Count == 0 {
		return Stats{}
	}
	st.Avg = sum / float64(st.Count)
	return st
}
