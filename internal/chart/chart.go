// Package chart renders the live sensor chart as colored sparklines with a
// time-label axis underneath.
package chart

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/sensordash/internal/history"
	"github.com/luki/sensordash/internal/sensor"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	colorEmpty = lipgloss.Color("236")
	colorGap   = lipgloss.Color("239")
	colorAxis  = lipgloss.Color("239")
)

// SeriesColor returns the line color of a series.
func SeriesColor(q sensor.Quantity) lipgloss.Color {
	switch q {
	case sensor.Temperature:
		return lipgloss.Color("196") // red
	case sensor.Humidity:
		return lipgloss.Color("33") // blue
	case sensor.Light:
		return lipgloss.Color("214") // orange
	default:
		return lipgloss.Color("250")
	}
}

// ValueRange returns a vertical range that fits every valid value with
// some headroom. An empty series gets [0, 1].
func ValueRange(vals []sensor.Field) (float64, float64) {
	st := history.SeriesStats(vals)
	if st.Count == 0 {
		return 0, 1
	}
	pad := math.Max(1, (st.Peak-st.Min)*0.1)
	return st.Min - pad, st.Peak + pad
}

// RenderSeries renders one series as a sparkline of slots points, each
// cell columns wide. Missing leading slots are drawn as a dim dashed
// line and invalid points as a dim dot, so the series stays aligned
// with the timeline.
func RenderSeries(vals []sensor.Field, slots, cell int, rangeMin, rangeMax float64, color lipgloss.Color) string {
	if slots <= 0 || cell <= 0 {
		return ""
	}
	if len(vals) > slots {
		vals = vals[len(vals)-slots:]
	}

	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder

	empty := lipgloss.NewStyle().Foreground(colorEmpty)
	padLen := slots - len(vals)
	if padLen > 0 {
		sb.WriteString(empty.Render(strings.Repeat("╌", padLen*cell)))
	}

	gap := lipgloss.NewStyle().Foreground(colorGap)
	line := lipgloss.NewStyle().Foreground(color)

	for _, v := range vals {
		if !v.Valid {
			sb.WriteString(gap.Render(strings.Repeat("·", cell)))
			continue
		}

		norm := (float64(v.Value) - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))

		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}
		sb.WriteString(line.Render(strings.Repeat(string(sparkBlocks[idx]), cell)))
	}

	return sb.String()
}

// RenderTimeline renders the labels under a chart of slots points, each
// cell columns wide. A label starts at its point's column, labels that
// would overlap the previous one or run past the edge are skipped.
func RenderTimeline(labels []string, slots, cell int) string {
	if len(labels) == 0 || slots <= 0 || cell <= 0 {
		return ""
	}
	if len(labels) > slots {
		labels = labels[len(labels)-slots:]
	}

	width := slots * cell
	padLen := slots - len(labels)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	lastEnd := -1
	for i, label := range labels {
		start := (padLen + i) * cell
		runes := []rune(label)
		end := start + len(runes)
		if end > width {
			continue
		}
		if start <= lastEnd {
			continue
		}
		copy(line[start:], runes)
		lastEnd = end
	}

	return lipgloss.NewStyle().Foreground(colorAxis).Render(string(line))
}

// RenderValue renders a reading text in the series color.
func RenderValue(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}
