package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"microrental/internal/booking"
	"microrental/internal/models"
	"microrental/internal/services"
)

type RentalRequestHandler struct {
	Service *services.RentalRequestService
}

func (h *RentalRequestHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.Service.Submit(r.Context(), currentUserID(r), req)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *RentalRequestHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Accept(r.Context(), id, currentUserID(r)); err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": booking.StatusAccepted})
}

func (h *RentalRequestHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Reject(r.Context(), id, currentUserID(r)); err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": booking.StatusRejected})
}

// ListIncoming returns requests on the caller's items, optionally filtered by
// ?status=pending|accepted|rejected|completed.
func (h *RentalRequestHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.ListForOwner(r.Context(), currentUserID(r), r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "Failed to load requests", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

func (h *RentalRequestHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.ListForRenter(r.Context(), currentUserID(r))
	if err != nil {
		http.Error(w, "Failed to load requests", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

func requestIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing request ID", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrItemNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
	case errors.Is(err, models.ErrRequestNotFound):
		http.Error(w, "Request not found", http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, "Only the item owner may do that", http.StatusForbidden)
	case errors.Is(err, booking.ErrSelfRental):
		http.Error(w, "You cannot rent your own item", http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrItemUnavailable):
		http.Error(w, "Item is not available", http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrPastDate):
		http.Error(w, "Start date is in the past", http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrDateOrder):
		http.Error(w, "End date is before start date", http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrOverlap):
		http.Error(w, "Dates overlap an existing request", http.StatusConflict)
	case errors.Is(err, booking.ErrInvalidTransition):
		http.Error(w, "Request is no longer pending", http.StatusConflict)
	default:
		http.Error(w, "Failed to process request", http.StatusBadRequest)
	}
}
