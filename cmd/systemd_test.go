package main

import (
	"context"
	"testing"
	"time"

	"chamberctl/internal/logger"
)

type fixedTick time.Time

func (f fixedTick) LastTick() time.Time { return time.Time(f) }

func TestRunWatchdog_ReturnsWhenNotSupervised(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	t.Setenv("NOTIFY_SOCKET", "")

	done := make(chan struct{})
	go func() {
		runWatchdog(context.Background(), fixedTick(time.Now()), 100*time.Millisecond, logger.Nop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog loop should not start outside systemd")
	}
}

func TestNotifyReady_NoSocketIsQuiet(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	notifyReady(logger.Nop())
	notifyStopping()
}
