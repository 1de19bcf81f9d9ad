package simulator

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload []byte
}

func newTestBridge(t *testing.T) (*Bridge, *State, *[]published) {
	t.Helper()
	state := newTestState()
	b := NewBridge(BridgeConfig{
		Broker:      "tcp://127.0.0.1:1884",
		SensorTopic: "bbb/sensors",
		LEDTopic:    "bbb/led",
	}, state, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var out []published
	b.publish = func(topic string, payload []byte) error {
		out = append(out, published{topic, payload})
		return nil
	}
	state.OnLEDChange(b.forwardLEDs)
	return b, state, &out
}

func TestBridgeIngest(t *testing.T) {
	b, state, out := newTestBridge(t)

	require.NoError(t, b.ingest([]byte(`{"temperature":28.5,"humidity":61.2,"lux":120}`)))

	rec, ok := state.Latest()
	require.True(t, ok)
	assert.Equal(t, 28.5, rec.Temperature)
	assert.Equal(t, "ON", rec.LEDs.LED2)

	require.Len(t, *out, 1)
	assert.Equal(t, "bbb/led", (*out)[0].topic)
	assert.JSONEq(t, `{"led1":"OFF","led2":"ON"}`, string((*out)[0].payload))
}

func TestBridgeIngestMissingValues(t *testing.T) {
	b, state, _ := newTestBridge(t)

	require.NoError(t, b.ingest([]byte(`{"humidity":40}`)))
	rec, ok := state.Latest()
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.Temperature)
	assert.Equal(t, "OFF", rec.LEDs.LED2)
}

func TestBridgeIngestRejectsGarbage(t *testing.T) {
	b, state, out := newTestBridge(t)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, b.ingest([]byte(`not json`)), &syntaxErr)

	_, ok := state.Latest()
	assert.False(t, ok)
	assert.Empty(t, *out)
}

func TestBridgeForwardsLEDCommands(t *testing.T) {
	_, state, out := newTestBridge(t)

	led1 := "on"
	state.SetLEDs(&led1, nil)

	require.Len(t, *out, 1)
	assert.JSONEq(t, `{"led1":"ON","led2":"OFF"}`, string((*out)[0].payload))
}

func TestBridgePublishFailureIsLogged(t *testing.T) {
	b, state, _ := newTestBridge(t)
	b.publish = func(string, []byte) error { return errors.New("not connected") }

	rec := state.Ingest(20, 40, 100)
	assert.Equal(t, "OFF", rec.LEDs.LED2)
}
