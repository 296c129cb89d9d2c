// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chamber"

var (
	Temperature = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "temperature_celsius",
		Help:      "Last measured chamber temperature.",
	})
	Humidity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "humidity_percent",
		Help:      "Last measured relative humidity.",
	})
	Pressure = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pressure_hpa",
		Help:      "Last measured barometric pressure.",
	})
	Actuator = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "actuator_on",
		Help:      "Actuator output level (1 on, 0 off).",
	}, []string{"actuator"})
	Automatic = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mode_automatic",
		Help:      "1 when the climate controller drives the actuators.",
	})
	Phase = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "phase_id",
		Help:      "Active phase id.",
	})
	LinkUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "link_up",
		Help:      "1 while the uplink is established.",
	})

	SensorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sensor_errors_total",
		Help:      "Failed sensor reads.",
	})
	SaveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_save_errors_total",
		Help:      "Failed persisted state writes.",
	})
	TelemetryPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telemetry_published_total",
		Help:      "Telemetry hand-offs by result.",
	}, []string{"result"})
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Remote commands processed.",
	}, []string{"command"})
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "firmware_updates_total",
		Help:      "Firmware update attempts by result.",
	}, []string{"result"})
)

// Bool converts a level to a gauge value.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
