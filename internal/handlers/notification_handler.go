package handlers

import (
	"encoding/json"
	"net/http"

	"microrental/internal/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func (h *NotificationHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	if err := h.Service.RegisterToken(r.Context(), currentUserID(r), req.Token); err != nil {
		http.Error(w, "Failed to register token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
