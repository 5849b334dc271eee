package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// Technicians serves POST (create or update) and GET (list). day_off accepts
// MONDAY..SUNDAY or LUNDI..DIMANCHE.
func (h *SchedulingHandler) Technicians(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		list, err := h.svc.ListTechnicians(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if list == nil {
			list = []model.Technician{}
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	var t model.Technician
	if !decode(w, r, &t) {
		return
	}
	saved, err := h.svc.SaveTechnician(r.Context(), t)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
