package services

import (
	"errors"
	"testing"

	"microrental/internal/models"
)

func TestValidateItem(t *testing.T) {
	base := models.Item{
		Title:       "Cordless Drill",
		Category:    "Tools & Equipment",
		PricePerDay: 120,
	}

	tests := []struct {
		name    string
		mutate  func(*models.Item)
		wantErr error
	}{
		{name: "valid", mutate: func(*models.Item) {}},
		{name: "blank title", mutate: func(i *models.Item) { i.Title = "   " }, wantErr: ErrEmptyTitle},
		{name: "unknown category", mutate: func(i *models.Item) { i.Category = "Boats" }, wantErr: ErrUnknownCategory},
		{name: "zero price", mutate: func(i *models.Item) { i.PricePerDay = 0 }, wantErr: ErrNonPositivePrice},
		{name: "negative price", mutate: func(i *models.Item) { i.PricePerDay = -5 }, wantErr: ErrNonPositivePrice},
		{name: "too many images", mutate: func(i *models.Item) {
			i.Images = []string{"a", "b", "c", "d", "e", "f"}
		}, wantErr: ErrTooManyImages},
		{name: "five images ok", mutate: func(i *models.Item) {
			i.Images = []string{"a", "b", "c", "d", "e"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := base
			tt.mutate(&item)
			err := validateItem(item)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("validateItem: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
