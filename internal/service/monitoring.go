package service

import (
	"context"

	"meeting_autopause/internal/models"
	"meeting_autopause/internal/repository"
)

type MonitoringService struct {
	statusRepo repository.StatusRepo
}

func NewMonitoringService(statusRepo repository.StatusRepo) *MonitoringService {
	return &MonitoringService{statusRepo: statusRepo}
}

// GetStatus returns a copy of the shared status. Displays call this on
// every redraw; the copy is never partially updated.
func (s *MonitoringService) GetStatus(ctx context.Context) (models.Status, error) {
	st, err := s.statusRepo.Load(ctx)
	if err != nil {
		return models.Status{}, err
	}
	st.DetectedAt = normalizeToUTC(st.DetectedAt)
	return st, nil
}
