package api

import (
	"encoding/json"
	"fmt"
)

// LED status values used on the wire.
const (
	StatusOn  = "ON"
	StatusOff = "OFF"
)

// Snapshot is the body of GET /api/latest. Sensor values are kept raw
// because the API sends them as numbers or strings.
type Snapshot struct {
	Temperature json.RawMessage `json:"temperature,omitempty"`
	Humidity    json.RawMessage `json:"humidity,omitempty"`
	Lux         json.RawMessage `json:"lux,omitempty"`
	LED1        string          `json:"led1,omitempty"`
	LED2        string          `json:"led2,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// LEDRequest is the body of POST /api/led.
type LEDRequest struct {
	LED1 string `json:"led1,omitempty"`
	LED2 string `json:"led2,omitempty"`
}

// LEDResponse is the reply to POST /api/led.
type LEDResponse struct {
	Success bool   `json:"success"`
	LED1    string `json:"led1,omitempty"`
	LED2    string `json:"led2,omitempty"`
}

// LED2Log is the body of POST /api/log_led2.
type LED2Log struct {
	LED2 string `json:"led2"`
}

// ServerError is returned when the API answers with an "error" field.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("sensor api: %s", e.Message)
}
