package main

import (
	"context"
	"time"

	"chamberctl/internal/logger"

	"github.com/coreos/go-systemd/v22/daemon"
)

// tickSource reports when the control loop last ran.
type tickSource interface {
	LastTick() time.Time
}

func notifyReady(log *logger.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warnw("sd_notify_failed", "err", err)
		return
	}
	if sent {
		log.Infow("sd_notify_ready")
	}
}

func notifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// runWatchdog pets the systemd watchdog while the control loop keeps
// ticking. A stalled loop stops the pings and systemd restarts the unit.
func runWatchdog(ctx context.Context, loop tickSource, tick time.Duration, log *logger.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	stale := interval / 2
	if floor := 20 * tick; stale < floor {
		stale = floor
	}
	log.Infow("watchdog_enabled", "interval", interval.String())

	t := time.NewTicker(interval / 3)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			last := loop.LastTick()
			if last.IsZero() || time.Since(last) > stale {
				log.Warnw("watchdog_skipped", "last_tick", last)
				continue
			}
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
