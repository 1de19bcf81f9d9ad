// Package monitor implements the live sensor dashboard TUI using BubbleTea:
// reading cards, LED status with the LED2 alert, and a sliding sparkline
// chart, refreshed once per second.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/sensordash/internal/api"
	"github.com/luki/sensordash/internal/chart"
	"github.com/luki/sensordash/internal/dashboard"
	"github.com/luki/sensordash/internal/history"
	"github.com/luki/sensordash/internal/sensor"
)

// toggleFailedNotice is shown when the backend refuses an LED1 change.
const toggleFailedNotice = "Failed to update LED1 status."

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type cycleMsg struct {
	frame dashboard.Frame
	err   error
}

type toggleMsg struct {
	requested string
	err       error
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live dashboard.
type Model struct {
	session   *dashboard.Session
	apiHost   string
	frame     dashboard.Frame
	err       error
	notice    string // blocking failure notice, dismissed with enter/esc
	toggling  bool
	width     int
	height    int
	startTime time.Time
	paused    bool
}

// New creates the initial model for a dashboard session.
func New(session *dashboard.Session, apiHost string) Model {
	return Model{
		session:   session,
		apiHost:   apiHost,
		frame:     session.Frame(),
		startTime: time.Now(),
	}
}

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(dashboard.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func pollCmd(s *dashboard.Session) tea.Cmd {
	return func() tea.Msg {
		f, err := s.Cycle(context.Background())
		return cycleMsg{frame: f, err: err}
	}
}

func toggleCmd(s *dashboard.Session) tea.Cmd {
	return func() tea.Msg {
		requested, err := s.Toggle(context.Background())
		return toggleMsg{requested: requested, err: err}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(pollCmd(m.session), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.notice != "" {
			switch msg.String() {
			case "enter", "esc":
				m.notice = ""
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t", "l":
			if m.toggling {
				return m, nil
			}
			m.toggling = true
			return m, toggleCmd(m.session)
		case " ", "p":
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(pollCmd(m.session), tickCmd())

	case cycleMsg:
		var serr *api.ServerError
		switch {
		case msg.err == nil:
			// A toggle may have landed after this cycle rendered.
			m.frame = m.session.Frame()
			m.err = nil
		case errors.Is(msg.err, dashboard.ErrCycleInFlight):
		case errors.As(msg.err, &serr):
			// The backend is up but has nothing to report yet.
			m.err = nil
		default:
			m.err = msg.err
		}

	case toggleMsg:
		m.toggling = false
		switch {
		case msg.err == nil:
			m.frame = m.session.Frame()
		case errors.Is(msg.err, dashboard.ErrToggleRejected):
			m.notice = toggleFailedNotice
		case errors.Is(msg.err, dashboard.ErrToggleInFlight):
		default:
			m.err = fmt.Errorf("toggle led1: %w", msg.err)
		}
	}

	return m, nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOn       = lipgloss.Color("78")
	colorNormal   = lipgloss.Color("252")
	colorAlert    = lipgloss.Color("196")
	colorPaused   = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 60 {
		contentWidth = 60
	}

	if m.notice != "" {
		return m.renderNotice(contentWidth)
	}

	var sections []string

	sections = append(sections, m.renderTitleBar(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorAlert).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(fmt.Sprintf(" ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	sections = append(sections, m.renderCards(contentWidth))

	if m.frame.Cycles == 0 {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(1, 0).
			Render("Waiting for sensor data...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections, m.renderChart(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.height > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
		}
		content = strings.Join(lines, "\n")
	}
	return content
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SENSOR DASHBOARD")

	dimS := lipgloss.NewStyle().Foreground(colorDim)

	var statusParts []string
	statusParts = append(statusParts, dimS.Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))))

	if !m.frame.Updated.IsZero() {
		statusParts = append(statusParts, dimS.Render(m.frame.Updated.Format(sensor.LabelLayout)))
	}

	if m.apiHost != "" {
		statusParts = append(statusParts, dimS.Render(m.apiHost))
	}

	if id := m.session.ID(); len(id) >= 8 {
		statusParts = append(statusParts, dimS.Render("session "+id[:8]))
	}

	if m.paused {
		p := lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED")
		statusParts = append(statusParts, p)
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m Model) renderCards(totalWidth int) string {
	qs := sensor.Quantities()
	cardWidth := totalWidth/(len(qs)+1) - 2
	if cardWidth < 12 {
		cardWidth = 12
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(cardWidth)
	nameS := lipgloss.NewStyle().Foreground(colorDim)

	var cards []string
	for _, q := range qs {
		text := m.frame.Text(q)
		var value string
		if m.frame.Reading.Get(q).Valid {
			value = chart.RenderValue(text, chart.SeriesColor(q))
		} else {
			value = nameS.Render(text)
		}
		cards = append(cards, card.Render(nameS.Render(q.Name())+"\n"+value))
	}

	cards = append(cards, card.Render(m.renderLED1()+"\n"+m.renderLED2()))

	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m Model) renderLED1() string {
	labelS := lipgloss.NewStyle().Foreground(colorDim)

	color := colorNormal
	if m.frame.LED1 == "ON" {
		color = colorOn
	}
	status := lipgloss.NewStyle().Foreground(color).Bold(true).Render(m.frame.LED1)

	var tag string
	switch {
	case m.toggling:
		tag = labelS.Render(" …")
	case m.frame.LED1Overridden:
		tag = labelS.Render(" manual")
	}
	return labelS.Render("LED1 ") + status + tag
}

func (m Model) renderLED2() string {
	labelS := lipgloss.NewStyle().Foreground(colorDim)

	if m.frame.Alert {
		warn := lipgloss.NewStyle().
			Foreground(colorAlert).
			Bold(true).
			Blink(true).
			Render("⚠")
		return labelS.Render("LED2 ") + warn
	}

	text := m.frame.LED2
	if m.frame.Cycles > 0 {
		text = "OFF"
	}
	return labelS.Render("LED2 ") + lipgloss.NewStyle().Foreground(colorNormal).Render(text)
}

func (m Model) renderChart(totalWidth int) string {
	labelW := 14
	statsW := 30
	slots := history.DefaultCapacity

	chartWidth := totalWidth - labelW - statsW - 8
	cell := chartWidth / slots
	if cell < 1 {
		cell = 1
	}
	if cell > 12 {
		cell = 12
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var rows []string
	for _, q := range sensor.Quantities() {
		vals := m.frame.Chart.Series[q]
		rangeMin, rangeMax := chart.ValueRange(vals)

		label := lipgloss.NewStyle().
			Foreground(colorLabel).
			Width(labelW).
			Render(truncate(q.ChartLabel(), labelW))

		spark := chart.RenderSeries(vals, slots, cell, rangeMin, rangeMax, chart.SeriesColor(q))

		var stats string
		if st := history.SeriesStats(vals); st.Count > 0 {
			stats = dimS.Render(" avg") + valS.Render(fmt.Sprintf("%6.1f", st.Avg)) +
				dimS.Render(" lo") + valS.Render(fmt.Sprintf("%5.0f", st.Min)) +
				dimS.Render(" pk") + valS.Render(fmt.Sprintf("%5.0f", st.Peak))
		} else {
			stats = dimS.Render(" no data")
		}

		rows = append(rows, label+" "+frameL+spark+frameR+stats)
	}

	timeline := chart.RenderTimeline(m.frame.Chart.Labels, slots, cell)
	if strings.TrimSpace(timeline) != "" {
		rows = append(rows, strings.Repeat(" ", labelW+2)+timeline)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	var legend string
	for _, q := range sensor.Quantities() {
		legend += lipgloss.NewStyle().Foreground(chart.SeriesColor(q)).Render("██") +
			dimS.Render(" "+strings.ToLower(q.Name())+" ")
	}
	legend += dimS.Render("·· no reading")

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  t") + keyS.Render(":toggle led1") +
		dimS.Render("  p") + keyS.Render(":pause")

	gap := width - lipgloss.Width(legend) - lipgloss.Width(keys) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + filler + keys)
}

func (m Model) renderNotice(width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorAlert).
		Padding(1, 3).
		Render(lipgloss.NewStyle().Foreground(colorAlert).Bold(true).Render(m.notice) +
			"\n\n" + lipgloss.NewStyle().Foreground(colorDim).Render("press enter to continue"))

	height := m.height
	if height < lipgloss.Height(box) {
		height = lipgloss.Height(box)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func truncate(s string, w int) string {
	if len([]rune(s)) <= w {
		return s
	}
	r := []rune(s)
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
