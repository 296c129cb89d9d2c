// Package netlink tracks whether the uplink is usable by dialing a known
// endpoint on a fixed cadence.
package netlink

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/metrics"
)

// Defaults.
const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 3 * time.Second
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Prober exposes the last probe result as the link-established signal.
type Prober struct {
	addr     string
	interval time.Duration
	timeout  time.Duration
	dial     dialFunc
	log      *logger.Logger

	up atomic.Bool
}

func NewProber(addr string, interval, timeout time.Duration, log *logger.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &net.Dialer{}
	return &Prober{addr: addr, interval: interval, timeout: timeout, dial: d.DialContext, log: log}
}

// Connected reports the last probe result.
func (p *Prober) Connected() bool { return p.up.Load() }

// Run probes immediately, then every interval until ctx is canceled.
func (p *Prober) Run(ctx context.Context) {
	p.Probe(ctx)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Probe(ctx)
		}
	}
}

// Probe dials once and records the result. Transitions are logged.
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.addr)
	up := err == nil
	if conn != nil {
		_ = conn.Close()
	}

	if prev := p.up.Swap(up); prev != up {
		if up {
			p.log.Infow("link_up", "addr", p.addr)
		} else {
			p.log.Warnw("link_down", "addr", p.addr, "error", err)
		}
	}
	metrics.LinkUp.Set(metrics.Bool(up))
	return up
}

// Static is a fixed link state, used when probing is disabled.
type Static bool

func (s Static) Connected() bool { return bool(s) }
