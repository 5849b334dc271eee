package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/service"
)

type createReservationRequest struct {
	StartTime     string `json:"start_time"`
	Duration      string `json:"duration"`
	CustomerEmail string `json:"customer_email"`
	ServiceTitle  string `json:"service_title"`
}

type reservationItem struct {
	ReservationID string `json:"reservation_id"`
	StartTime     string `json:"start_time"`
	Duration      string `json:"duration"`
	TechnicianID  string `json:"technician_id,omitempty"`
	Status        string `json:"status"`
	ServiceTitle  string `json:"service_title,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type assignRequest struct {
	ReservationID string `json:"reservation_id"`
	TechnicianID  string `json:"technician_id"`
}

type assignResponse struct {
	AssignmentID  string `json:"assignment_id"`
	ReservationID string `json:"reservation_id"`
	TechnicianID  string `json:"technician_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type cancelRequest struct {
	ReservationID string `json:"reservation_id"`
}

func toItem(r model.Reservation) reservationItem {
	return reservationItem{
		ReservationID: r.ID,
		StartTime:     r.Start.UTC().Format(time.RFC3339),
		Duration:      r.Duration,
		TechnicianID:  r.TechnicianID,
		Status:        string(r.Status),
		ServiceTitle:  r.ServiceTitle,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Reservations serves POST (create) and GET (list).
func (h *SchedulingHandler) Reservations(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.listReservations(w, r)
		return
	}

	var req createReservationRequest
	if !decode(w, r, &req) {
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	res, err := h.svc.CreateReservation(r.Context(), service.CreateReservation{
		Start:         start,
		Duration:      req.Duration,
		CustomerEmail: req.CustomerEmail,
		ServiceTitle:  req.ServiceTitle,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(res))
}

func (h *SchedulingHandler) listReservations(w http.ResponseWriter, r *http.Request) {
	limit, ok := positiveQuery(r, "limit", 50)
	if !ok || limit > 200 {
		http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
		return
	}
	list, err := h.svc.ListReservations(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]reservationItem, 0, len(list))
	for _, res := range list {
		items = append(items, toItem(res))
	}
	writeJSON(w, http.StatusOK, items)
}

// Assign assigns or reassigns a technician.
func (h *SchedulingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.Assign(r.Context(), strings.TrimSpace(req.ReservationID), strings.TrimSpace(req.TechnicianID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{
		AssignmentID:  a.ID,
		ReservationID: a.ReservationID,
		TechnicianID:  a.TechnicianID,
		StartTime:     a.Window.Start.UTC().Format(time.RFC3339),
		EndTime:       a.Window.End.UTC().Format(time.RFC3339),
	})
}

func (h *SchedulingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Complete(r.Context(), strings.TrimSpace(req.ReservationID), strings.TrimSpace(req.TechnicianID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(res))
}

func (h *SchedulingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !decode(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.ReservationID)
	if id == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}
	if err := h.svc.CancelReservation(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reservation_id": id, "status": "cancelled"})
}
