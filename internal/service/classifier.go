package service

import (
	"fmt"
	"regexp"
	"time"

	"meeting_autopause/internal/models"
)

// cameraOnPattern matches the log line emitted while at least one app has
// video effects active, i.e. the camera is in use.
var cameraOnPattern = regexp.MustCompile(`appEffects: \[ControlCenterApp\.AppVideoEffects`)

// Classify maps a log line to CameraOn or CameraOff. Any line without the
// video-effects marker, including empty or unrelated lines, reads as off.
func Classify(line string) models.CameraState {
	if cameraOnPattern.MatchString(line) {
		return models.CameraOn
	}
	return models.CameraOff
}

// descriptionTimeLayout renders local wall-clock time as HH:MM:SS.
const descriptionTimeLayout = "15:04:05"

func describeTransition(cam models.CameraState, at time.Time) string {
	return fmt.Sprintf("%s detected at %s", cam, at.Format(descriptionTimeLayout))
}

// applyTransition updates camera, playback and description together when
// cam differs from the stored camera state. Unknown never equals a
// classification, so the first line always transitions.
func applyTransition(st *models.Status, cam models.CameraState, at time.Time) bool {
	if cam == models.CameraUnknown || st.Camera == cam {
		return false
	}
	st.Camera = cam
	st.LastEvent = describeTransition(cam, at)
	st.DetectedAt = at
	if cam == models.CameraOn {
		st.Playback = models.Paused
	} else {
		st.Playback = models.Playing
	}
	return true
}
