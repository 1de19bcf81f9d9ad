package simulator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS          = 0
	mqttWaitTimeout  = 5 * time.Second
	mqttQuiesceMilli = 250
)

// BridgeConfig describes the broker the device talks to.
type BridgeConfig struct {
	Broker      string // e.g. tcp://192.168.6.1:1884
	Username    string
	Password    string
	SensorTopic string
	LEDTopic    string
}

// Bridge relays device readings from MQTT into a State and publishes
// every LED state change back to the device.
type Bridge struct {
	cfg     BridgeConfig
	state   *State
	log     *slog.Logger
	client  mqtt.Client
	publish func(topic string, payload []byte) error
}

type devicePayload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Lux         float64 `json:"lux"`
}

type ledPayload struct {
	LED1 string `json:"led1"`
	LED2 string `json:"led2"`
}

// NewBridge creates a bridge. Call Connect to start relaying.
func NewBridge(cfg BridgeConfig, state *State, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(fmt.Sprintf("sensordash-sim-%d", time.Now().UnixNano())).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	b := &Bridge{
		cfg:    cfg,
		state:  state,
		log:    logger.With("broker", cfg.Broker),
		client: mqtt.NewClient(opts),
	}
	b.publish = b.publishMQTT
	return b
}

// Connect connects to the broker, subscribes to the sensor topic and
// starts forwarding LED changes.
func (b *Bridge) Connect() error {
	if token := b.client.Connect(); !token.WaitTimeout(mqttWaitTimeout) || token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", b.cfg.Broker, tokenError(token))
	}

	token := b.client.Subscribe(b.cfg.SensorTopic, mqttQoS, func(_ mqtt.Client, msg mqtt.Message) {
		if err := b.ingest(msg.Payload()); err != nil {
			b.log.Error("bad sensor message", "topic", msg.Topic(), "error", err)
		}
	})
	if !token.WaitTimeout(mqttWaitTimeout) || token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", b.cfg.SensorTopic, tokenError(token))
	}

	b.state.OnLEDChange(b.forwardLEDs)
	b.log.Info("mqtt bridge connected", "sensor_topic", b.cfg.SensorTopic, "led_topic", b.cfg.LEDTopic)
	return nil
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(mqttQuiesceMilli)
}

// ingest stores one device message. Missing values count as zero.
func (b *Bridge) ingest(payload []byte) error {
	var p devicePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	rec := b.state.Ingest(p.Temperature, p.Humidity, p.Lux)
	b.log.Debug("sensor reading", "temperature", rec.Temperature, "humidity", rec.Humidity, "lux", rec.Lux)
	return nil
}

func (b *Bridge) forwardLEDs(led LEDRecord) {
	payload, err := json.Marshal(ledPayload{LED1: led.LED1, LED2: led.LED2})
	if err != nil {
		b.log.Error("failed to marshal led state", "error", err)
		return
	}
	if err := b.publish(b.cfg.LEDTopic, payload); err != nil {
		b.log.Error("failed to publish led state", "topic", b.cfg.LEDTopic, "error", err)
	}
}

func (b *Bridge) publishMQTT(topic string, payload []byte) error {
	token := b.client.Publish(topic, mqttQoS, false, payload)
	if !token.WaitTimeout(mqttWaitTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func tokenError(token mqtt.Token) error {
	if err := token.Error(); err != nil {
		return err
	}
	return fmt.Errorf("timed out after %s", mqttWaitTimeout)
}
