package alert

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := NewBell(&buf)

	require.NoError(t, b.Play())
	require.NoError(t, b.Play())
	assert.True(t, b.Playing())
	assert.Equal(t, "\a\a", buf.String())
	assert.Equal(t, 2, b.Rings())

	b.Stop()
	assert.False(t, b.Playing())
}

func TestBellWriteFailure(t *testing.T) {
	b := NewBell(failingWriter{})

	assert.Error(t, b.Play())
	assert.False(t, b.Playing())
}

func TestMuted(t *testing.T) {
	var a Alarm = Muted{}

	assert.ErrorIs(t, a.Play(), ErrMuted)
	assert.False(t, a.Playing())
	a.Stop()
}
