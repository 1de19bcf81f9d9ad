// Package config reads settings for the dashboard and the development
// backend from a .env file, the environment and command-line flags, in
// increasing order of precedence.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/luki/sensordash/internal/api"
)

const DefaultLogLevel = slog.LevelInfo

// Environment variables.
const (
	EnvAPIURL       = "SENSORDASH_API_URL"
	EnvLogFile      = "SENSORDASH_LOG_FILE"
	EnvMQTTBroker   = "SENSORDASH_MQTT_BROKER"
	EnvMQTTUser     = "SENSORDASH_MQTT_USER"
	EnvMQTTPassword = "SENSORDASH_MQTT_PASSWORD"
	EnvPort         = "PORT"
)

const (
	DefaultLogFile        = "sensordash.log"
	DefaultRequestTimeout = 5 * time.Second
	DefaultPort           = "5000"
	DefaultSensorTopic    = "bbb/sensors"
	DefaultLEDTopic       = "bbb/led"
	DefaultAlertThreshold = 27.0
)

// LoadEnv reads a .env file from the working directory into the process
// environment. A missing file is not an error for callers; they may log it.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// Monitor configures the terminal dashboard.
type Monitor struct {
	APIURL         string
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       slog.Level
	Mute           bool
}

// Simulator configures the development backend.
type Simulator struct {
	ListenAddr     string
	LogLevel       slog.Level
	AlertThreshold float64
	MQTTBroker     string
	MQTTUser       string
	MQTTPassword   string
	SensorTopic    string
	LEDTopic       string
}

// ParseMonitor builds the dashboard configuration from the environment
// and args.
func ParseMonitor(args []string) (Monitor, error) {
	cfg := Monitor{
		APIURL:         envOr(EnvAPIURL, api.DefaultBaseURL),
		RequestTimeout: DefaultRequestTimeout,
		LogFile:        envOr(EnvLogFile, DefaultLogFile),
	}

	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "Base URL of the sensor API.")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Timeout for each API request.")
	fs.StringVar(&cfg.LogFile, "log_file", cfg.LogFile, "File to write logs to, the terminal is owned by the dashboard.")
	fs.BoolVar(&cfg.Mute, "mute", false, "Do not ring the terminal bell on alerts.")
	level := fs.String("log_level", DefaultLogLevel.String(), "The log level to start at.")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.LogLevel, err = ParseLevel(*level); err != nil {
		return cfg, err
	}
	if cfg.APIURL == "" {
		return cfg, fmt.Errorf("api url must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, fmt.Errorf("timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

// ParseSimulator builds the backend configuration from the environment
// and args.
func ParseSimulator(args []string) (Simulator, error) {
	cfg := Simulator{
		ListenAddr:     ":" + envOr(EnvPort, DefaultPort),
		AlertThreshold: DefaultAlertThreshold,
		MQTTBroker:     os.Getenv(EnvMQTTBroker),
		MQTTUser:       os.Getenv(EnvMQTTUser),
		MQTTPassword:   os.Getenv(EnvMQTTPassword),
		SensorTopic:    DefaultSensorTopic,
		LEDTopic:       DefaultLEDTopic,
	}

	fs := flag.NewFlagSet("sim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Address to serve the sensor API on.")
	fs.Float64Var(&cfg.AlertThreshold, "alert_threshold", cfg.AlertThreshold, "Temperature above which LED2 turns on.")
	fs.StringVar(&cfg.MQTTBroker, "mqtt_broker", cfg.MQTTBroker, "MQTT broker URL, e.g. tcp://192.168.6.1:1884. Empty uses simulated readings.")
	fs.StringVar(&cfg.SensorTopic, "sensor_topic", cfg.SensorTopic, "MQTT topic carrying sensor readings.")
	fs.StringVar(&cfg.LEDTopic, "led_topic", cfg.LEDTopic, "MQTT topic for LED commands.")
	level := fs.String("log_level", DefaultLogLevel.String(), "The log level to start at.")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.LogLevel, err = ParseLevel(*level); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseLevel parses a slog level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return DefaultLogLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger creates a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
