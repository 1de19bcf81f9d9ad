package monitor

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/sensordash/internal/dashboard"
)

// Run launches the live dashboard TUI and blocks until the user quits.
// Queued LED2 log requests are flushed before it returns.
func Run(session *dashboard.Session, apiHost string) error {
	p := tea.NewProgram(
		New(session, apiHost),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	session.Close()
	return err
}
