package models

import "time"

// Event types recorded in the history.
const (
	EventCameraOn         = "CAMERA_ON"
	EventCameraOff        = "CAMERA_OFF"
	EventMonitorStarted   = "MONITOR_STARTED"
	EventMonitorRestarted = "MONITOR_RESTARTED"
	EventMonitorStopped   = "MONITOR_STOPPED"
)

// CameraEvent is a single history entry.
type CameraEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CAMERA_ON | CAMERA_OFF | MONITOR_*
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
