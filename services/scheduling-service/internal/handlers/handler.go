package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/service"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/storage"
)

// Scheduling is the subset of *service.Service the HTTP layer calls.
type Scheduling interface {
	CreateReservation(ctx context.Context, in service.CreateReservation) (model.Reservation, error)
	ListReservations(ctx context.Context, limit int) ([]model.Reservation, error)
	CancelReservation(ctx context.Context, id string) error
	Assign(ctx context.Context, reservationID, technicianID string) (model.Assignment, error)
	Complete(ctx context.Context, reservationID, technicianID string) (model.Reservation, error)
	SaturatedWindows(ctx context.Context, from, to time.Time) ([]model.TimeWindow, error)
	SaturatedSlots(ctx context.Context, from, to time.Time, step time.Duration) ([]model.TimeWindow, error)
	OpenSlots(ctx context.Context, technicianID string, day time.Time, d, step time.Duration) ([]time.Time, error)
	SaveTechnician(ctx context.Context, t model.Technician) (model.Technician, error)
	ListTechnicians(ctx context.Context) ([]model.Technician, error)
}

type SchedulingHandler struct {
	svc    Scheduling
	logger *slog.Logger
	loc    *time.Location
}

func NewSchedulingHandler(svc Scheduling, logger *slog.Logger, loc *time.Location) *SchedulingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulingHandler{svc: svc, logger: logger, loc: loc}
}

func (h *SchedulingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/reservations", h.Reservations)
	mux.HandleFunc("/api/v1/reservations/assign", h.Assign)
	mux.HandleFunc("/api/v1/reservations/complete", h.Complete)
	mux.HandleFunc("/api/v1/reservations/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/availability/saturated", h.Saturated)
	mux.HandleFunc("/api/v1/availability/slots", h.SaturatedSlots)
	mux.HandleFunc("/api/v1/technicians", h.Technicians)
	mux.HandleFunc("/api/v1/technicians/open-slots", h.OpenSlots)
}

type rejectionBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// writeError maps domain errors onto status codes.
func (h *SchedulingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *conflict.RejectionError
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusUnprocessableEntity, rejectionBody{Error: string(rej.Reason), Detail: rej.Error()})
	case errors.Is(err, duration.ErrInvalidFormat), errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotAssignedTechnician):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, model.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("request failed", "err", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// positiveQuery reads a positive integer parameter, falling back when absent.
func positiveQuery(r *http.Request, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// timeRange reads optional RFC 3339 from/to parameters.
func timeRange(r *http.Request) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	var err error
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
