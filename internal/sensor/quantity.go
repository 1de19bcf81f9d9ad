package sensor

import "strconv"

// Quantity identifies one of the measured series.
type Quantity int

const (
	Temperature Quantity = iota
	Humidity
	Light
)

// quantityInfo maps each quantity to its display names and unit.
var quantityInfo = []struct {
	name  string
	unit  string
	chart string
}{
	Temperature: {"Temperature", "°C", "Temp (°C)"},
	Humidity:    {"Humidity", "%", "Humidity (%)"},
	Light:       {"Light", "lux", "Light (lux)"},
}

// Quantities lists every quantity in chart order.
func Quantities() []Quantity {
	return []Quantity{Temperature, Humidity, Light}
}

func (q Quantity) valid() bool {
	return q >= 0 && int(q) < len(quantityInfo)
}

// Name returns a human-readable name, e.g. "Temperature".
func (q Quantity) Name() string {
	if !q.valid() {
		return "Sensor"
	}
	return quantityInfo[q].name
}

// Unit returns the display unit, e.g. "°C".
func (q Quantity) Unit() string {
	if !q.valid() {
		return ""
	}
	return quantityInfo[q].unit
}

// ChartLabel returns the series legend, e.g. "Temp (°C)".
func (q Quantity) ChartLabel() string {
	if !q.valid() {
		return q.Name()
	}
	return quantityInfo[q].chart
}

// Format renders a field with its unit. Invalid fields render a
// "--" placeholder so one bad value never hides the others.
func (q Quantity) Format(f Field) string {
	if !f.Valid {
		return "-- " + q.Unit()
	}
	return strconv.Itoa(f.Value) + " " + q.Unit()
}

func (q Quantity) String() string {
	return q.Name()
}
