package service

import (
	"context"

	"registrar/internal/registry/models"
)

// FilterEvents returns registration events matching filter in emission order.
func (s *Service) FilterEvents(ctx context.Context, filter models.EventFilter) ([]models.RegistrationEvent, error) {
	events, err := s.store.FilterEvents(ctx, filter)
	if err != nil {
		return nil, internal(err, "failed to filter events")
	}
	return events, nil
}
