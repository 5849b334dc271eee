package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

type windowItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *SchedulingHandler) windows(ws []model.TimeWindow) []windowItem {
	items := make([]windowItem, 0, len(ws))
	for _, win := range ws {
		items = append(items, windowItem{
			StartTime: win.Start.In(h.loc).Format(time.RFC3339),
			EndTime:   win.End.In(h.loc).Format(time.RFC3339),
		})
	}
	return items
}

// Saturated lists the windows in which every working technician is booked.
func (h *SchedulingHandler) Saturated(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	from, to, ok := timeRange(r)
	if !ok {
		http.Error(w, "invalid from/to", http.StatusBadRequest)
		return
	}
	ws, err := h.svc.SaturatedWindows(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.windows(ws))
}

// SaturatedSlots is the fixed-grid variant (step_minutes, default 30).
func (h *SchedulingHandler) SaturatedSlots(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	from, to, ok := timeRange(r)
	if !ok {
		http.Error(w, "invalid from/to", http.StatusBadRequest)
		return
	}
	step, ok := positiveQuery(r, "step_minutes", 30)
	if !ok {
		http.Error(w, "invalid step_minutes", http.StatusBadRequest)
		return
	}
	ws, err := h.svc.SaturatedSlots(r.Context(), from, to, time.Duration(step)*time.Minute)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.windows(ws))
}

// OpenSlots lists bookable start times for one technician on one local date.
// The job length is duration_minutes or a duration string such as "1h30min".
func (h *SchedulingHandler) OpenSlots(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := r.URL.Query()
	techID := strings.TrimSpace(q.Get("technician_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if techID == "" || dateStr == "" {
		http.Error(w, "technician_id and date are required", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	mins, ok := positiveQuery(r, "duration_minutes", 60)
	if !ok {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}
	if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
		if mins, err = duration.Parse(raw); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	step, ok := positiveQuery(r, "step_minutes", 30)
	if !ok {
		http.Error(w, "invalid step_minutes", http.StatusBadRequest)
		return
	}

	d := time.Duration(mins) * time.Minute
	slots, err := h.svc.OpenSlots(r.Context(), techID, day, d, time.Duration(step)*time.Minute)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]windowItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, windowItem{
			StartTime: s.In(h.loc).Format(time.RFC3339),
			EndTime:   s.Add(d).In(h.loc).Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}
