package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newPortalRouter(p *mockProvisioning, onSaved func()) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewPortal(p, onSaved, nil).InitRoutes()
}

func postForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPortal_Form(t *testing.T) {
	r := newPortalRouter(&mockProvisioning{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `action="/save"`) {
		t.Fatalf("unexpected form response %d: %s", w.Code, w.Body.String())
	}
}

func TestPortal_SaveStoresCredentialsAndSignalsRestart(t *testing.T) {
	prov := &mockProvisioning{}
	restarted := 0
	r := newPortalRouter(prov, func() { restarted++ })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/save", url.Values{"ssid": {"farm"}, "password": {"secret"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if len(prov.saved) != 1 || prov.saved[0].SSID != "farm" || prov.saved[0].Password != "secret" {
		t.Fatalf("unexpected saved credentials %+v", prov.saved)
	}
	if restarted != 1 {
		t.Fatalf("expected restart signal once, got %d", restarted)
	}
}

func TestPortal_SaveErrorRerendersForm(t *testing.T) {
	prov := &mockProvisioning{err: errors.New("ssid is required")}
	restarted := false
	r := newPortalRouter(prov, func() { restarted = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/save", url.Values{"ssid": {""}}))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "ssid is required") {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
	if restarted {
		t.Fatalf("no restart after a failed save")
	}
}
