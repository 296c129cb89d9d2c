package handlers

import (
	"context"
	"net/http"

	"chamberctl/internal/models"
	"chamberctl/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	enabled       bool
	genTokenToken string
	genTokenErr   error
	parseErr      error

	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) Enabled() bool { return m.enabled }
func (m *mockAuth) GenerateToken(password string) (string, error) {
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) error {
	m.lastParseToken = token
	return m.parseErr
}

type mockMonitoring struct {
	snap models.Snapshot
}

func (m *mockMonitoring) Snapshot() models.Snapshot { return m.snap }

type mockCommands struct {
	reply string
	err   error
	last  string
	calls int
}

func (m *mockCommands) Execute(ctx context.Context, text string) (string, error) {
	m.calls++
	m.last = text
	return m.reply, m.err
}

type mockProvisioning struct {
	err   error
	saved []models.Credentials
}

func (m *mockProvisioning) SaveCredentials(ctx context.Context, c models.Credentials) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, c)
	return nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
