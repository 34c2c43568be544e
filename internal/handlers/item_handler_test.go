package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadImageWithoutStorage(t *testing.T) {
	h := &ItemHandler{Storage: nil}

	r := httptest.NewRequest(http.MethodPost, "/items/1/images?:id=1", strings.NewReader(""))
	w := httptest.NewRecorder()

	h.UploadImage(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage is not configured, got %d", w.Code)
	}
}

func TestUploadImageMissingID(t *testing.T) {
	h := &ItemHandler{}

	r := httptest.NewRequest(http.MethodPost, "/items//images", nil)
	w := httptest.NewRecorder()

	h.UploadImage(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing item ID, got %d", w.Code)
	}
}
