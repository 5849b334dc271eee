package service

import (
	"context"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

func (s *Service) SaveTechnician(ctx context.Context, t model.Technician) (model.Technician, error) {
	t.ID, t.Name = trimmed(t.ID), trimmed(t.Name)
	if t.ID == "" {
		t.ID = s.newID()
	}
	if err := t.Validate(); err != nil {
		return model.Technician{}, invalid("%v", err)
	}
	if err := s.store.UpsertTechnician(ctx, t); err != nil {
		return model.Technician{}, err
	}
	return t, nil
}

func (s *Service) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	return s.store.ListTechnicians(ctx)
}
