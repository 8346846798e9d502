package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meeting_autopause/internal/models"
	"meeting_autopause/internal/service"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, localRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d, body=%s", w.Code, w.Body.String())
	}
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["status"] != statusOK {
		t.Fatalf("unexpected body: %v", out)
	}
}

func TestStatusHandler_GetStatus(t *testing.T) {
	detected := time.Date(2025, 6, 1, 14, 3, 9, 0, time.UTC)
	mon := &mockMonitoring{status: models.Status{
		Camera:     models.CameraOn,
		Playback:   models.Paused,
		LastEvent:  "CameraOn detected at 14:03:09",
		DetectedAt: detected,
		Monitor:    models.MonitorRunning,
	}}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, localRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["camera"] != "on" || raw["playback"] != "paused" || raw["monitor"] != "running" {
		t.Fatalf("unexpected wire format: %v", raw)
	}

	var st models.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.Camera != models.CameraOn || st.LastEvent != "CameraOn detected at 14:03:09" || !st.DetectedAt.Equal(detected) {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStatusHandler_DefaultsBeforeFirstEvent(t *testing.T) {
	mon := &mockMonitoring{status: models.NewStatus()}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, localRequest(http.MethodGet, "/api/v1/status", nil))

	var raw map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	if raw["camera"] != "unknown" || raw["playback"] != "playing" || raw["last_event"] != models.WaitingMessage {
		t.Fatalf("unexpected defaults: %v", raw)
	}
}

func TestStatusHandler_Error(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("boom")}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, localRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var out struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Error != errGetStatus {
		t.Fatalf("error message: got %q", out.Error)
	}
}
