package models

import (
	"time"
)

type Item struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Category    string     `json:"category"`
	PricePerDay float64    `json:"price_per_day"`
	Location    *string    `json:"location,omitempty"`
	Images      []string   `json:"images"`
	IsAvailable bool       `json:"is_available"`
	Owner       Profile    `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Categories mirrors the listing form's fixed category set.
var Categories = []string{
	"Electronics",
	"Tools & Equipment",
	"Cameras & Photography",
	"Musical Instruments",
	"Sports & Outdoors",
	"Party & Events",
	"Travel Gear",
	"Kitchen Appliances",
	"Costumes & Clothing",
	"Gaming",
	"Other",
}

func IsKnownCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

const MaxItemImages = 5

type ItemFilterRequest struct {
	Categories    []string `json:"categories"`
	PriceFrom     float64  `json:"price_from"`
	PriceTo       float64  `json:"price_to"`
	Query         string   `json:"query"`
	AvailableOnly bool     `json:"available_only"`
	Page          int      `json:"page"`
	Limit         int      `json:"limit"`
}

type ItemListResponse struct {
	Items    []Item  `json:"items"`
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
}

type SetAvailabilityRequest struct {
	ItemID      int  `json:"item_id"`
	IsAvailable bool `json:"is_available"`
}
