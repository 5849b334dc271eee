package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// snapshot is the file format read by every command:
//
//	timezone: Europe/Paris
//	technicians:
//	  - id: t1
//	    day_off: LUNDI
//	    hours: {start_minute: 480, end_minute: 1020}
//	reservations:
//	  - id: r1
//	    start: 2025-03-04T09:00:00Z
//	    duration: 2h30min
//	    technician_id: t1
type snapshot struct {
	Timezone     string              `yaml:"timezone"`
	Technicians  []model.Technician  `yaml:"technicians"`
	Reservations []model.Reservation `yaml:"reservations"`

	loc *time.Location
}

func loadSnapshot(path string) (*snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s snapshot
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	s.loc = time.UTC
	if s.Timezone != "" {
		if s.loc, err = time.LoadLocation(s.Timezone); err != nil {
			return nil, fmt.Errorf("snapshot timezone: %w", err)
		}
	}
	for _, t := range s.Technicians {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("technician %s: %w", t.ID, err)
		}
	}
	return &s, nil
}

func (s *snapshot) technician(id string) (model.Technician, bool) {
	for _, t := range s.Technicians {
		if t.ID == id {
			return t, true
		}
	}
	return model.Technician{}, false
}

func (s *snapshot) reservation(id string) (model.Reservation, bool) {
	for _, r := range s.Reservations {
		if r.ID == id {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// assignmentsOf derives the assignments of every reservation that names technicianID.
func (s *snapshot) assignmentsOf(engine *availability.Engine, technicianID string) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, r := range s.Reservations {
		if r.TechnicianID != technicianID {
			continue
		}
		w, err := engine.Window(r)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Assignment{ID: r.ID, TechnicianID: r.TechnicianID, ReservationID: r.ID, Window: w})
	}
	return out, nil
}
