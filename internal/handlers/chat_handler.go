package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"microrental/internal/models"
	"microrental/internal/services"
)

type ChatHandler struct {
	Service *services.ChatService
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	me := currentUserID(r)
	if req.UserID == 0 || req.UserID == me {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	chatID, err := h.Service.GetOrCreateChat(r.Context(), me, req.UserID)
	if err != nil {
		http.Error(w, "Failed to create chat", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"chat_id": chatID})
}

func (h *ChatHandler) GetChatByID(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing chat ID", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	chat, err := h.Service.GetChatByID(r.Context(), id, currentUserID(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrChatNotFound):
			http.Error(w, "Chat not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "Not a participant of this chat", http.StatusForbidden)
		default:
			http.Error(w, "Failed to load chat", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chat)
}

func (h *ChatHandler) GetMyChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Service.GetChatsByUserID(r.Context(), currentUserID(r))
	if err != nil {
		http.Error(w, "Failed to load chats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chats)
}
