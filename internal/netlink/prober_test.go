package netlink

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestProber_TracksListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	p := NewProber(ln.Addr().String(), time.Second, time.Second, nil)
	if p.Connected() {
		t.Fatalf("must start down before the first probe")
	}
	if !p.Probe(context.Background()) || !p.Connected() {
		t.Fatalf("expected link up")
	}

	_ = ln.Close()
	if p.Probe(context.Background()) || p.Connected() {
		t.Fatalf("expected link down after listener closed")
	}
}

func TestStatic(t *testing.T) {
	if !Static(true).Connected() || Static(false).Connected() {
		t.Fatalf("unexpected static link state")
	}
}
