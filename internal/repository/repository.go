package repository

import (
	"context"
	"database/sql"
	"time"

	"meeting_autopause/internal/models"
)

// StatusRepo is the shared camera/playback status. The monitor is its only writer.
type StatusRepo interface {
	Load(ctx context.Context) (models.Status, error)
	Update(ctx context.Context, fn func(st *models.Status) bool) (models.Status, bool, error)
}

// EventRepo is the append-only transition history.
type EventRepo interface {
	Append(ctx context.Context, e models.CameraEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CameraEvent, error)
}

type Repository struct {
	StatusRepo StatusRepo
	EventRepo  EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StatusRepo: NewStatusMemory(),
		EventRepo:  NewEventSQLite(db),
	}
}
