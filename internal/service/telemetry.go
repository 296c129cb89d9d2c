package service

import (
	"fmt"

	"chamberctl/internal/logger"
	"chamberctl/internal/metrics"
	"chamberctl/internal/models"
)

// DefaultTelemetryTopic is the ThingsBoard device telemetry topic.
const DefaultTelemetryTopic = "v1/devices/me/telemetry"

// FormatTelemetry renders the wire payload consumed by the dashboard. Key
// order, precision and the 0/1 encodings are fixed.
func FormatTelemetry(m models.Measurement, s models.OperatingState) string {
	return fmt.Sprintf(
		`{"temperature":%.2f,"humidity":%.2f,"pressure":%.2f,"gas":%.0f,"auto":%d,"fan":%d,"humid":%d,"phase_id":%d}`,
		m.TemperatureC, m.HumidityPct, m.PressureHPa, m.GasOhms,
		s.Mode.ID(), boolDigit(s.Fan), boolDigit(s.Humidifier), int(s.Phase.Normalize()),
	)
}

// TelemetryPublisher hands payloads to the broker without waiting for acks.
type TelemetryPublisher struct {
	messenger Messenger
	link      Link
	topic     string
	log       *logger.Logger
}

func NewTelemetryPublisher(m Messenger, link Link, topic string, log *logger.Logger) *TelemetryPublisher {
	if topic == "" {
		topic = DefaultTelemetryTopic
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TelemetryPublisher{messenger: m, link: link, topic: topic, log: log}
}

// Publish sends one sample. It reports whether the payload was handed off;
// nothing is sent while the link is down.
func (p *TelemetryPublisher) Publish(m models.Measurement, s models.OperatingState) bool {
	if p == nil || p.messenger == nil {
		return false
	}
	if p.link != nil && !p.link.Connected() {
		metrics.TelemetryPublished.WithLabelValues("offline").Inc()
		return false
	}
	payload := FormatTelemetry(m, s)
	if err := p.messenger.Publish(p.topic, payload); err != nil {
		metrics.TelemetryPublished.WithLabelValues("error").Inc()
		p.log.Warnw("telemetry_publish_failed", "topic", p.topic, "error", err)
		return false
	}
	metrics.TelemetryPublished.WithLabelValues("ok").Inc()
	p.log.Debugw("telemetry_published", "topic", p.topic, "payload", payload)
	return true
}
