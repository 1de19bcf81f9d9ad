package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/luki/sensordash/internal/sensor"
)

func reading(i int) sensor.Reading {
	return sensor.Reading{
		Temperature: sensor.Field{Value: 20 + i, Valid: true},
		Humidity:    sensor.Field{Value: 50 + i, Valid: true},
		Lux:         sensor.Field{Value: 100 * i, Valid: true},
	}
}

func TestWindowGrowsUntilFull(t *testing.T) {
	w := NewWindow(DefaultCapacity)

	for i := 1; i <= DefaultCapacity; i++ {
		w.Push(fmt.Sprintf("t%d", i), reading(i))

		if w.Len() != i {
			t.Fatalf("after %d pushes: Len() = %d", i, w.Len())
		}
		for _, q := range sensor.Quantities() {
			if n := len(w.Values(q)); n != i {
				t.Errorf("after %d pushes: %s has %d points", i, q, n)
			}
		}
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(DefaultCapacity)

	for i := 1; i <= 11; i++ {
		w.Push(fmt.Sprintf("t%d", i), reading(i))
	}

	if w.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", w.Len())
	}
	labels := w.Labels()
	if labels[0] != "t2" || labels[9] != "t11" {
		t.Errorf("labels = %v, want t2..t11", labels)
	}
	for _, q := range sensor.Quantities() {
		vals := w.Values(q)
		if len(vals) != 10 {
			t.Errorf("%s has %d points, want 10", q, len(vals))
		}
		if vals[0] != reading(2).Get(q) {
			t.Errorf("%s oldest = %+v, want %+v", q, vals[0], reading(2).Get(q))
		}
		if vals[9] != reading(11).Get(q) {
			t.Errorf("%s newest = %+v, want %+v", q, vals[9], reading(11).Get(q))
		}
	}

	for i := 12; i <= 40; i++ {
		w.Push(fmt.Sprintf("t%d", i), reading(i))
		if w.Len() != 10 {
			t.Fatalf("after %d pushes: Len() = %d", i, w.Len())
		}
	}
}

func TestWindowKeepsGaps(t *testing.T) {
	w := NewWindow(3)
	w.Push("a", reading(1))
	w.Push("b", sensor.Reading{Humidity: sensor.Field{Value: 40, Valid: true}})
	w.Push("c", reading(3))

	temps := w.Values(sensor.Temperature)
	if len(temps) != 3 || temps[1].Valid {
		t.Errorf("expected a gap at index 1, got %+v", temps)
	}

	st := w.Stats(sensor.Temperature)
	if st.Count != 2 {
		t.Errorf("Count = %d, want 2", st.Count)
	}
	if st.Min != 21 || st.Peak != 23 || st.Avg != 22 {
		t.Errorf("stats = %+v, want min 21 peak 23 avg 22", st)
	}

	if last := w.Last(sensor.Humidity); last.Value != 53 {
		t.Errorf("Last(Humidity) = %+v, want 53", last)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(time.Unix(0, 0).Format(sensor.LabelLayout), reading(1))

	snap := w.Snapshot()
	w.Push("next", reading(2))
	w.Push("again", reading(3))

	if snap.Len() != 1 {
		t.Errorf("snapshot Len() = %d, want 1", snap.Len())
	}
	if snap.Series[sensor.Light] == nil {
		t.Fatal("snapshot missing light series")
	}
	if got := snap.Series[sensor.Light][0].Value; got != 100 {
		t.Errorf("snapshot lux = %d, want 100", got)
	}
}

func TestSeriesStatsEmpty(t *testing.T) {
	st := SeriesStats([]sensor.Field{{}, {}})
	if st.Count != 0 || st.Min != 0 || st.Peak != 0 {
		t.Errorf("stats of invalid series = %+v, want zero", st)
	}
}
