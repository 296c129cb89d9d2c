package service

import (
	"context"

	"chamberctl/internal/models"
)

// Sensor returns one climate sample per call.
type Sensor interface {
	Read(ctx context.Context) (models.Measurement, error)
}

// Display is a small text display addressed by row. Calls are best effort.
type Display interface {
	Power(on bool)
	Clear()
	WriteLine(row int, text string)
}

// Actuator is a binary output (relay).
type Actuator interface {
	Set(on bool) error
}

// Button is the physical wake/config button.
type Button interface {
	Pressed() bool
}

// Messenger hands telemetry to the cloud broker without waiting for acks.
type Messenger interface {
	Publish(topic, payload string) error
}

// ChatTransport is the long-polling chat bot channel.
type ChatTransport interface {
	// Poll returns updates with id > afterID, in order.
	Poll(ctx context.Context, afterID int64) ([]models.Update, error)
	Send(ctx context.Context, channel, text string) error
}

// Link reports whether the uplink is established.
type Link interface {
	Connected() bool
}

// UpdateTrigger starts a firmware update in the background. It reports
// false when an update is already running.
type UpdateTrigger interface {
	Trigger() bool
}
