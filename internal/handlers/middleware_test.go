package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meeting_autopause/internal/service"

	"github.com/gin-gonic/gin"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", h.loopbackOnly, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestLoopbackOnly(t *testing.T) {
	cases := []struct {
		name        string
		remoteAddr  string
		forwarded   string
		allowRemote bool
		wantCode    int
	}{
		{name: "ipv4 loopback", remoteAddr: "127.0.0.1:50000", wantCode: http.StatusOK},
		{name: "ipv6 loopback", remoteAddr: "[::1]:50000", wantCode: http.StatusOK},
		{name: "other loopback address", remoteAddr: "127.0.0.2:50000", wantCode: http.StatusOK},
		{name: "lan client", remoteAddr: "192.168.1.20:50000", wantCode: http.StatusForbidden},
		{name: "forwarded header is ignored", remoteAddr: "10.0.0.5:50000", forwarded: "127.0.0.1", wantCode: http.StatusForbidden},
		{name: "garbage address", remoteAddr: "not-an-addr", wantCode: http.StatusForbidden},
		{name: "remote allowed", remoteAddr: "192.168.1.20:50000", allowRemote: true, wantCode: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&service.Service{}, nil).AllowRemote(tc.allowRemote)
			r := newMiddlewareOnlyRouter(h)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantCode == http.StatusForbidden {
				var out struct {
					Error string `json:"error"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &out)
				if out.Error == "" {
					t.Fatalf("expected error body")
				}
			}
		})
	}
}

func TestInitRoutes_RejectsRemoteClients(t *testing.T) {
	mon := &mockMonitoring{}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if mon.calls != 0 {
		t.Fatalf("handler ran for a rejected client")
	}
}
