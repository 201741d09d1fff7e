package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"qrmenu/agg-svc/internal/domain"
	"qrmenu/agg-svc/internal/service"
)

type Handler struct {
	Stats service.StoreInterface
	now   func() time.Time
}

func NewHandler(stats service.StoreInterface) *Handler {
	return &Handler{Stats: stats, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "agg-svc"})
	}).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/stats", h.getDailyStats).Methods("GET")
}

// getDailyStats defaults to today (UTC) when no date is given.
func (h *Handler) getDailyStats(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = domain.DayOf(h.now())
	} else if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	stats, err := h.Stats.DailyStats(r.Context(), mux.Vars(r)["id"], date)
	if err != nil {
		log.Printf("stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: failed to encode response: %v", err)
	}
}
