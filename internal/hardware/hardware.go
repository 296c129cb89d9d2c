// Package hardware provides the device backends: the Raspberry Pi board
// through gobot and a simulated chamber for running off-device.
package hardware

import (
	"chamberctl/internal/service"
)

// Board groups the device handles of one backend.
type Board struct {
	Sensor     service.Sensor
	Display    service.Display
	Fan        service.Actuator
	Humidifier service.Actuator
	Button     service.Button

	close func() error
}

// Close releases the underlying devices.
func (b *Board) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}
