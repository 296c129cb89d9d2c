// Package thingsboard publishes device telemetry to a ThingsBoard MQTT
// endpoint. The device access token is the MQTT username.
package thingsboard

import (
	"errors"
	"fmt"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const disconnectQuiesceMs = 250

var errNotConnected = errors.New("mqtt client not connected")

// Config describes the broker connection.
type Config struct {
	Broker   string
	Token    string
	ClientID string
}

// publisher is the part of mqtt.Client the messenger uses.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Messenger hands telemetry to the broker at QoS 0 without waiting.
type Messenger struct {
	client publisher
	log    *logger.Logger
}

// Dial creates the client and starts connecting in the background; paho
// keeps retrying and reconnecting on its own.
func Dial(cfg Config, log *logger.Logger) (*Messenger, func()) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Token != "" {
		opts.SetUsername(cfg.Token)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", cfg.Broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	client.Connect()

	return newMessenger(client, log), func() {
		if client.IsConnected() {
			client.Disconnect(disconnectQuiesceMs)
		}
	}
}

func newMessenger(p publisher, log *logger.Logger) *Messenger {
	if log == nil {
		log = logger.Nop()
	}
	return &Messenger{client: p, log: log}
}

// Publish queues payload. Delivery errors are logged once the token settles.
func (m *Messenger) Publish(topic, payload string) error {
	if !m.client.IsConnected() {
		return fmt.Errorf("%w: %v", service.ErrTransport, errNotConnected)
	}
	token := m.client.Publish(topic, 0, false, payload)
	go func() { // Non-blocking wait for publish to complete
		<-token.Done()
		if err := token.Error(); err != nil {
			m.log.Warnw("mqtt_publish_failed", "topic", topic, "error", err)
		}
	}()
	return nil
}
