package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"chamberctl/internal/models"
	"chamberctl/internal/service"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("chamber_")) {
		t.Fatalf("metrics status=%d", w.Code)
	}
}

func TestChamberHandlers_GetState(t *testing.T) {
	auth := &mockAuth{enabled: true}
	mon := &mockMonitoring{snap: models.Snapshot{
		State: models.OperatingState{Phase: models.PhaseFruiting, Mode: models.ModeManual, Actuators: models.Actuators{Fan: true}},
		Phase: models.PhaseByID(models.PhaseFruiting),
	}}
	r := newTestRouter(&service.Service{Authorization: auth, Monitoring: mon})

	// requires auth → 401 without header
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header = authHeader("valid")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if snap.State.Mode != models.ModeManual || !snap.State.Fan || snap.Phase.TempMax != 23 {
		t.Fatalf("unexpected state: %+v", snap)
	}
}

func TestChamberHandlers_OpenWhenAuthDisabled(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Monitoring: &mockMonitoring{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected open API, got %d", w.Code)
	}
}

func TestChamberHandlers_PostCommand(t *testing.T) {
	cmds := &mockCommands{reply: "Fan ON (manual mode)."}
	s := &service.Service{Authorization: &mockAuth{}, Monitoring: &mockMonitoring{}, Commands: cmds}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", bytes.NewBufferString(`{"command":"/fan_on"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("command status=%d, body=%s", w.Code, w.Body.String())
	}
	if cmds.last != "/fan_on" {
		t.Fatalf("command not forwarded: %q", cmds.last)
	}
	var resp struct {
		Reply string `json:"reply"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Reply != cmds.reply {
		t.Fatalf("unexpected reply %q", resp.Reply)
	}
}

func TestChamberHandlers_PostCommandErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"missing command", `{}`, nil, http.StatusBadRequest},
		{"unknown command", `{"command":"/dance"}`, fmt.Errorf("%w: %q", service.ErrUnknownCommand, "/dance"), http.StatusBadRequest},
		{"internal failure", `{"command":"/status"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmds := &mockCommands{reply: "Unknown command.", err: tc.err}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Monitoring: &mockMonitoring{}, Commands: cmds})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Fatalf("status=%d want %d, body=%s", w.Code, tc.code, w.Body.String())
			}
		})
	}
}
