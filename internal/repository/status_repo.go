package repository

import (
	"context"
	"sync"

	"meeting_autopause/internal/models"
)

// StatusMemory holds the shared status behind one lock so that every
// field of models.Status is read and written as a group.
type StatusMemory struct {
	mu     sync.RWMutex
	status models.Status
}

func NewStatusMemory() *StatusMemory {
	return &StatusMemory{status: models.NewStatus()}
}

var _ StatusRepo = (*StatusMemory)(nil)

// Load returns a copy of the current status.
func (r *StatusMemory) Load(ctx context.Context) (models.Status, error) {
	if err := ctx.Err(); err != nil {
		return models.Status{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status, nil
}

// Update runs fn on a copy of the status under the write lock. The copy is
// committed only when fn returns true. The returned status is the one in
// effect after the call.
func (r *StatusMemory) Update(ctx context.Context, fn func(st *models.Status) bool) (models.Status, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Status{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.status
	if !fn(&next) {
		return r.status, false, nil
	}
	r.status = next
	return next, true, nil
}
