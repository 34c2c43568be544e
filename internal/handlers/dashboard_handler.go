package handlers

import (
	"encoding/json"
	"net/http"

	"microrental/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context(), currentUserID(r))
	if err != nil {
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
