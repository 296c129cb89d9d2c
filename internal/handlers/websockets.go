package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chamberctl/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
	replyBuffer      = 4
)

// Outgoing frame types.
const (
	frameState = "state"
	frameReply = "reply"
	frameError = "error"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsCommand is what a client may send on the stream, e.g. {"command":"/fan_on"}.
type wsCommand struct {
	Command string `json:"command"`
}

// The API only listens on the device's LAN address.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateStream owns one websocket. Only run writes to the connection; the
// reader hands command replies over through replies.
type stateStream struct {
	h       *Handler
	conn    *websocket.Conn
	every   time.Duration
	replies chan wsEnvelope
}

// @Summary      Live state stream
// @Description  Sends {"type":"state","data":Snapshot} every interval (?interval=2s or ?interval_ms=500, max 10s).
// @Description  Clients may send {"command":"/status"}; the answer arrives as {"type":"reply"}.
// @Tags         chamber
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	every := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logWS("ws_upgrade_failed", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s := &stateStream{h: h, conn: conn, every: every, replies: make(chan wsEnvelope, replyBuffer)}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	done := make(chan struct{})
	go s.read(ctx, done)
	s.run(ctx, done)
}

func (s *stateStream) run(ctx context.Context, done <-chan struct{}) {
	push := time.NewTicker(s.every)
	ping := time.NewTicker(pingPeriod)
	defer push.Stop()
	defer ping.Stop()

	if err := s.write(wsEnvelope{Type: frameState, Data: s.h.services.Snapshot()}); err != nil {
		s.h.logWS("ws_write_failed_initial", err)
		return
	}

	for {
		var err error
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case env := <-s.replies:
			err = s.write(env)
		case <-push.C:
			err = s.write(wsEnvelope{Type: frameState, Data: s.h.services.Snapshot()})
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = s.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			s.h.logWS("ws_write_failed", err)
			return
		}
	}
}

// read runs commands sent by the client until the connection closes.
func (s *stateStream) read(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		var msg wsCommand
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !badFrame(err) {
				return
			}
			// malformed payloads are answered like unknown commands
			if !s.offer(ctx, wsEnvelope{Type: frameError, Error: "invalid command frame"}) {
				return
			}
			continue
		}
		if !s.offer(ctx, s.execute(ctx, msg.Command)) {
			return
		}
	}
}

func (s *stateStream) execute(ctx context.Context, text string) wsEnvelope {
	if s.h.services.Commands == nil {
		return wsEnvelope{Type: frameError, Error: errCommandFailed}
	}
	reply, err := s.h.services.Execute(ctx, text)
	switch {
	case errors.Is(err, service.ErrUnknownCommand):
		return wsEnvelope{Type: frameError, Error: reply}
	case err != nil:
		s.h.logWS("ws_command_failed", err, "command", text)
		return wsEnvelope{Type: frameError, Error: errCommandFailed}
	}
	return wsEnvelope{Type: frameReply, Data: reply}
}

func (s *stateStream) offer(ctx context.Context, env wsEnvelope) bool {
	select {
	case s.replies <- env:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *stateStream) write(env wsEnvelope) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(env)
}

// badFrame reports decode errors; anything else means the connection is gone.
func badFrame(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

func (h *Handler) logWS(event string, err error, kv ...interface{}) {
	if h.log == nil {
		return
	}
	h.log.Debugw(event, append([]interface{}{"err", err}, kv...)...)
}
