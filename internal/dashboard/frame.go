package dashboard

import (
	"time"

	"github.com/luki/sensordash/internal/history"
	"github.com/luki/sensordash/internal/sensor"
)

// placeholder is shown before the first successful cycle.
const placeholder = "--"

// Frame is everything the dashboard displays after a cycle.
type Frame struct {
	Reading sensor.Reading

	Temperature string // e.g. "25 °C" or "-- °C"
	Humidity    string
	Light       string

	LED1           string // displayed LED1 text
	LED1Overridden bool   // LED1 shows the user's choice, not the backend's
	ServerLED1     string // LED1 as last reported by the backend
	LED2           string // resolved LED2 status, "ON" or "OFF"
	Alert          bool   // LED2 is ON

	Chart   history.Snapshot
	Updated time.Time // zero until the first successful cycle
	Cycles  int       // successful cycles so far
}

func initialFrame() Frame {
	return Frame{
		Temperature: sensor.Temperature.Format(sensor.Field{}),
		Humidity:    sensor.Humidity.Format(sensor.Field{}),
		Light:       sensor.Light.Format(sensor.Field{}),
		LED1:        placeholder,
		ServerLED1:  placeholder,
		LED2:        placeholder,
	}
}

// Text returns the display text for a quantity.
func (f Frame) Text(q sensor.Quantity) string {
	switch q {
	case sensor.Temperature:
		return f.Temperature
	case sensor.Humidity:
		return f.Humidity
	case sensor.Light:
		return f.Light
	}
	return placeholder
}
