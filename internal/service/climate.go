package service

import "chamberctl/internal/models"

const (
	// FanHysteresisC is the dead band below TempMax before the fan stops.
	FanHysteresisC = 0.5
	// HumidifierHysteresisPct is the dead band above HumMin before the
	// humidifier stops.
	HumidifierHysteresisPct = 3.0
)

// Decide maps a measurement and the active phase to actuator levels. Inside
// a dead band the current level is held. Only the upper temperature bound is
// used: the chamber vents, it never heats.
func Decide(m models.Measurement, p models.Phase, cur models.Actuators) models.Actuators {
	next := cur

	switch {
	case m.TemperatureC > p.TempMax:
		next.Fan = true
	case m.TemperatureC < p.TempMax-FanHysteresisC:
		next.Fan = false
	}

	switch {
	case m.HumidityPct < p.HumMin:
		next.Humidifier = true
	case m.HumidityPct > p.HumMin+HumidifierHysteresisPct:
		next.Humidifier = false
	}

	return next
}
