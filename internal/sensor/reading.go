// Package sensor holds the environment readings reported by the sensor API
// and the rules for turning raw API values into displayable fields.
package sensor

import "time"

// LabelLayout is the wall-clock format used for chart labels.
const LabelLayout = "15:04:05"

// Field is one integer measurement. Valid is false when the API value
// could not be parsed as an integer.
type Field struct {
	Value int
	Valid bool
}

// Reading represents one snapshot of the three environment sensors.
type Reading struct {
	Temperature Field
	Humidity    Field
	Lux         Field
	Time        time.Time // when the snapshot was taken, local clock
}

// Label returns the chart label for this reading.
func (r Reading) Label() string {
	return r.Time.Format(LabelLayout)
}

// Get returns the field for the given quantity.
func (r Reading) Get(q Quantity) Field {
	switch q {
	case Temperature:
		return r.Temperature
	case Humidity:
		return r.Humidity
	case Light:
		return r.Lux
	}
	return Field{}
}
