package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"microrental/internal/models"
	"microrental/internal/services"
)

type MessageHandler struct {
	Service *services.MessageService
}

func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var message models.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	message.SenderID = currentUserID(r)

	created, err := h.Service.CreateMessage(r.Context(), message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrChatNotFound):
			http.Error(w, "Chat not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "Not a participant of this chat", http.StatusForbidden)
		default:
			http.Error(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GetMessagesForChat pages with ?page= and ?limit=; reading marks the other
// side's messages as read.
func (h *MessageHandler) GetMessagesForChat(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing chat ID", http.StatusBadRequest)
		return
	}

	chatID, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.Service.GetMessagesForChat(r.Context(), chatID, currentUserID(r), page, limit)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrChatNotFound):
			http.Error(w, "Chat not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "Not a participant of this chat", http.StatusForbidden)
		default:
			http.Error(w, "Failed to load messages", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func (h *MessageHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.CountUnread(r.Context(), currentUserID(r))
	if err != nil {
		http.Error(w, "Failed to count unread messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"unread": count})
}
