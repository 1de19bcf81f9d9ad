// Package alert provides the audible cue played while LED2 reports an alert.
package alert

import (
	"errors"
	"io"
	"sync"
)

// ErrMuted is returned by a muted alarm for every Play call.
var ErrMuted = errors.New("alarm is muted")

// Alarm plays an audible alert. Play may be called on every refresh while
// the alert condition holds; Stop silences and resets it.
type Alarm interface {
	Play() error
	Stop()
	Playing() bool
}

// Bell rings the terminal bell on a writer, usually the terminal.
type Bell struct {
	mu      sync.Mutex
	w       io.Writer
	playing bool
	rings   int
}

// NewBell creates a bell that writes to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Play rings the bell once.
func (b *Bell) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return err
	}
	b.playing = true
	b.rings++
	return nil
}

// Stop resets the bell.
func (b *Bell) Stop() {
	b.mu.Lock()
	b.playing = false
	b.mu.Unlock()
}

// Playing reports whether the bell rang since the last Stop.
func (b *Bell) Playing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// Rings returns how many times the bell rang.
func (b *Bell) Rings() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rings
}

// Muted is an alarm that refuses to play.
type Muted struct{}

func (Muted) Play() error   { return ErrMuted }
func (Muted) Stop()         {}
func (Muted) Playing() bool { return false }
