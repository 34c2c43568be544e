package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"microrental/internal/models"
	"microrental/internal/services"
	"microrental/utils"
)

type ItemHandler struct {
	Service *services.ItemService
	Storage *utils.Storage
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	item.UserID = currentUserID(r)

	created, err := h.Service.CreateItem(r.Context(), item)
	if err != nil {
		if isItemValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *ItemHandler) GetItemByID(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing item ID", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	item, err := h.Service.GetItemByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			http.Error(w, "Item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) GetItemsByUserID(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":user_id")
	if idStr == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	items, err := h.Service.GetItemsByUserID(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load items", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *ItemHandler) GetFilteredItems(w http.ResponseWriter, r *http.Request) {
	var filter models.ItemFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.Service.GetFilteredItems(r.Context(), filter)
	if err != nil {
		http.Error(w, "Failed to load items", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *ItemHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.Categories)
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing item ID", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	item.ID = id

	updated, err := h.Service.UpdateItem(r.Context(), currentUserID(r), item)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "You can only edit your own items", http.StatusForbidden)
		case isItemValidationError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to update item", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *ItemHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req models.SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.Service.SetAvailability(r.Context(), currentUserID(r), req.ItemID, req.IsAvailable)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "You can only edit your own items", http.StatusForbidden)
		default:
			http.Error(w, "Failed to update availability", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing item ID", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	err = h.Service.DeleteItem(r.Context(), currentUserID(r), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "You can only delete your own items", http.StatusForbidden)
		case errors.Is(err, models.ErrOpenRequests):
			http.Error(w, "Item has pending or active rentals", http.StatusConflict)
		default:
			http.Error(w, "Failed to delete item", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get(":id")
	if idStr == "" {
		http.Error(w, "Missing item ID", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	// The initializer wires a nil Storage when object storage is not
	// configured; the route stays up but uploads are refused.
	if h.Storage == nil {
		http.Error(w, "Image storage is not configured", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), header.Filename)
	url, err := h.Storage.UploadFile(data, fileName, "items", header.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, "Failed to upload file", http.StatusInternalServerError)
		return
	}

	err = h.Service.AddImage(r.Context(), currentUserID(r), id, url)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "You can only edit your own items", http.StatusForbidden)
		case errors.Is(err, services.ErrTooManyImages):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to attach image", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func isItemValidationError(err error) bool {
	return errors.Is(err, services.ErrEmptyTitle) ||
		errors.Is(err, services.ErrUnknownCategory) ||
		errors.Is(err, services.ErrNonPositivePrice) ||
		errors.Is(err, services.ErrTooManyImages)
}
