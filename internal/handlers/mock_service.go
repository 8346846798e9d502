package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"meeting_autopause/internal/models"
	"meeting_autopause/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockMonitoring struct {
	status models.Status
	err    error
	calls  int
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (models.Status, error) {
	m.calls++
	return m.status, m.err
}

type mockEventLog struct {
	resp     []models.CameraEvent
	err      error
	calls    int
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CameraEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

const loopbackAddr = "127.0.0.1:52100"

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

// localRequest builds a request that appears to come from the loopback interface.
func localRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = loopbackAddr
	return req
}
