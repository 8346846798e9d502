package models

import (
	"fmt"
	"time"
)

// CameraState is the last classification applied by the monitor.
type CameraState uint8

const (
	CameraUnknown CameraState = iota
	CameraOn
	CameraOff
)

// String returns the form used in event descriptions
// ("Unknown", "CameraOn", "CameraOff").
func (s CameraState) String() string {
	switch s {
	case CameraOn:
		return "CameraOn"
	case CameraOff:
		return "CameraOff"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the state as "unknown" | "on" | "off".
func (s CameraState) MarshalText() ([]byte, error) {
	switch s {
	case CameraOn:
		return []byte("on"), nil
	case CameraOff:
		return []byte("off"), nil
	default:
		return []byte("unknown"), nil
	}
}

func (s *CameraState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "on":
		*s = CameraOn
	case "off":
		*s = CameraOff
	case "unknown", "":
		*s = CameraUnknown
	default:
		return fmt.Errorf("unknown camera state %q", string(b))
	}
	return nil
}

// PlaybackState mirrors the last action sent to the media player.
// It is not read back from the player.
type PlaybackState uint8

const (
	Playing PlaybackState = iota
	Paused
)

func (s PlaybackState) String() string {
	if s == Paused {
		return "Paused"
	}
	return "Playing"
}

func (s PlaybackState) MarshalText() ([]byte, error) {
	if s == Paused {
		return []byte("paused"), nil
	}
	return []byte("playing"), nil
}

func (s *PlaybackState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "playing", "":
		*s = Playing
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("unknown playback state %q", string(b))
	}
	return nil
}

// MonitorState reports whether the log stream is being read.
type MonitorState string

const (
	MonitorIdle       MonitorState = "idle"
	MonitorRunning    MonitorState = "running"
	MonitorRestarting MonitorState = "restarting"
	MonitorStopped    MonitorState = "stopped"
)

// WaitingMessage is the LastEvent value before the first transition.
const WaitingMessage = "Waiting for camera events..."

// Status is the single unit of shared state written by the monitor and
// read by displays. Camera, Playback and LastEvent always change together.
type Status struct {
	Camera       CameraState   `json:"camera"`
	Playback     PlaybackState `json:"playback"`
	LastEvent    string        `json:"last_event"`
	DetectedAt   time.Time     `json:"detected_at,omitempty"`
	Monitor      MonitorState  `json:"monitor"`
	MonitorError string        `json:"monitor_error,omitempty"`
}

// NewStatus returns the startup defaults.
func NewStatus() Status {
	return Status{
		Camera:    CameraUnknown,
		Playback:  Playing,
		LastEvent: WaitingMessage,
		Monitor:   MonitorIdle,
	}
}
