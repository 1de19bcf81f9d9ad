// Command sensordash is a terminal dashboard for the home sensor board:
// live temperature, humidity and light readings, LED status with an
// audible LED2 alert, and LED1 control.
//
// Usage:
//
//	sensordash [monitor] [flags]   live dashboard (default)
//	sensordash sim [flags]         development sensor API
//	sensordash help
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/luki/sensordash/internal/alert"
	"github.com/luki/sensordash/internal/api"
	"github.com/luki/sensordash/internal/config"
	"github.com/luki/sensordash/internal/dashboard"
	"github.com/luki/sensordash/internal/monitor"
	"github.com/luki/sensordash/internal/simulator"
)

func main() {
	envErr := config.LoadEnv()

	args := os.Args[1:]
	cmd := "monitor"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "monitor":
		err = runMonitor(args, envErr)
	case "sim", "simulate":
		err = runSimulator(args, envErr)
	case "help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		printHelp()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMonitor(args []string, envErr error) error {
	cfg, err := config.ParseMonitor(args)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := config.NewLogger(logFile, cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Debug("no .env file loaded", "error", envErr)
	}

	var alarm alert.Alarm = alert.NewBell(os.Stdout)
	if cfg.Mute {
		alarm = alert.Muted{}
	}

	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout, nil)
	session := dashboard.NewSession(client, alarm, logger)

	slog.Info("starting dashboard", "api", client.BaseURL(), "session", session.ID())
	defer slog.Info("dashboard stopped", "session", session.ID())

	return monitor.Run(session, hostOf(client.BaseURL()))
}

func runSimulator(args []string, envErr error) error {
	cfg, err := config.ParseSimulator(args)
	if err != nil {
		return err
	}

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Warn("could not load .env file", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var accessLog io.Writer = os.Stdout
	return simulator.Run(ctx, cfg, logger, accessLog)
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}

func printHelp() {
	fmt.Println(`sensordash - live sensor dashboard

Usage:
  sensordash [monitor] [flags]   live dashboard (default)
  sensordash sim [flags]         development sensor API on :5000
  sensordash help

Monitor flags:
  -api URL          sensor API base URL (default http://localhost:5000, env SENSORDASH_API_URL)
  -timeout D        per-request timeout (default 5s)
  -log_file PATH    log file (default sensordash.log, env SENSORDASH_LOG_FILE)
  -log_level LEVEL  debug, info, warn, error (default INFO)
  -mute             do not ring the terminal bell on alerts

Simulator flags:
  -listen ADDR           listen address (default :5000, env PORT)
  -alert_threshold C     temperature that switches LED2 on (default 27)
  -mqtt_broker URL       relay readings from an MQTT broker (env SENSORDASH_MQTT_BROKER)
  -sensor_topic TOPIC    default bbb/sensors
  -led_topic TOPIC       default bbb/led
  -log_level LEVEL       debug, info, warn, error (default INFO)

Keys (monitor):
  t        toggle LED1
  p/space  pause polling
  q        quit`)
}
