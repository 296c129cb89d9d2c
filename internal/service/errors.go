package service

import "errors"

var (
	// ErrSensorRead wraps any failed measurement; the tick skips control and telemetry.
	ErrSensorRead = errors.New("sensor read failed")
	// ErrTransport wraps chat or broker failures; treated as "nothing this cycle".
	ErrTransport = errors.New("transport error")
	// ErrUnknownCommand is returned for text that matches no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUpdateBusy is returned when a firmware update is already running.
	ErrUpdateBusy = errors.New("update already in progress")
)
