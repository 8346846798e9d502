package service

import (
	"context"
	"io"

	"meeting_autopause/internal/logger"
	"meeting_autopause/internal/models"
	"meeting_autopause/internal/repository"
)

// LineSource opens a fresh stream of log lines. Cancelling ctx, or closing
// the returned reader, ends the stream.
type LineSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// MediaController issues best-effort playback commands. Neither call
// reports failure.
type MediaController interface {
	Pause(ctx context.Context)
	Resume(ctx context.Context)
}

// Monitor watches the camera log stream and drives the media controller.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	Done() <-chan struct{}
	HandleLine(ctx context.Context, line string) bool
}

// Monitoring exposes a read-only snapshot of the shared status.
type Monitoring interface {
	GetStatus(ctx context.Context) (models.Status, error)
}

// EventLog exposes the transition history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CameraEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Monitor
	Monitoring
	EventLog
}

// Deps carries the collaborators that live outside the repository layer.
type Deps struct {
	Source  LineSource
	Media   MediaController
	Log     *logger.Logger
	Options MonitorOptions
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Monitor:    NewCameraMonitorService(deps.Source, deps.Media, repos.StatusRepo, repos.EventRepo, deps.Log, deps.Options),
		Monitoring: NewMonitoringService(repos.StatusRepo),
		EventLog:   NewEventLogService(repos.EventRepo),
	}
}
