package simulator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/luki/sensordash/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Run serves the sensor API until ctx is cancelled. Readings come from
// the MQTT broker when one is configured, otherwise from a generator.
func Run(ctx context.Context, cfg config.Simulator, logger *slog.Logger, accessLog io.Writer) error {
	state := NewState(cfg.AlertThreshold, nil)

	if cfg.MQTTBroker != "" {
		bridge := NewBridge(BridgeConfig{
			Broker:      cfg.MQTTBroker,
			Username:    cfg.MQTTUser,
			Password:    cfg.MQTTPassword,
			SensorTopic: cfg.SensorTopic,
			LEDTopic:    cfg.LEDTopic,
		}, state, logger)
		if err := bridge.Connect(); err != nil {
			return err
		}
		defer bridge.Close()
	} else {
		gen := NewGenerator(state, uint64(time.Now().UnixNano()))
		go gen.Run(ctx, time.Second)
		logger.Info("no mqtt broker configured, generating readings")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(NewHandler(state, logger), accessLog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Info("Starting sensor API", "addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
