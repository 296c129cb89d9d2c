package service

import (
	"context"
	"sync/atomic"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/metrics"

	"github.com/dustin/go-humanize"
)

// Downloader fetches and installs a new firmware image, returning its size.
type Downloader interface {
	Download(ctx context.Context) (int64, error)
}

// Updater runs firmware updates on its own goroutine. Trigger posts a
// request and never blocks the caller.
type Updater struct {
	downloader Downloader
	restart    func()
	timeout    time.Duration
	log        *logger.Logger

	requests chan struct{}
	busy     atomic.Bool
}

// NewUpdater returns an updater. restart is called after a successful
// install; it may be nil.
func NewUpdater(d Downloader, restart func(), timeout time.Duration, log *logger.Logger) *Updater {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Updater{
		downloader: d,
		restart:    restart,
		timeout:    timeout,
		log:        log,
		requests:   make(chan struct{}, 1),
	}
}

// Trigger queues an update. It reports false when one is already queued or running.
func (u *Updater) Trigger() bool {
	if !u.busy.CompareAndSwap(false, true) {
		return false
	}
	u.requests <- struct{}{}
	return true
}

// Busy reports whether an update is queued or running.
func (u *Updater) Busy() bool { return u.busy.Load() }

// Run serves update requests until ctx is canceled.
func (u *Updater) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.requests:
			u.install(ctx)
			u.busy.Store(false)
		}
	}
}

func (u *Updater) install(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	u.log.Infow("firmware_update_started")
	n, err := u.downloader.Download(ctx)
	if err != nil {
		metrics.Updates.WithLabelValues("error").Inc()
		u.log.Errorw("firmware_update_failed", "error", err)
		return
	}
	metrics.Updates.WithLabelValues("ok").Inc()
	u.log.Infow("firmware_update_installed", "size", humanize.Bytes(uint64(n)), "took", time.Since(start).String())
	if u.restart != nil {
		u.restart()
	}
}
