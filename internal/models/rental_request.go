package models

import (
	"time"
)

// RentalRequest is a ledger entry: it is created by the renter, transitioned
// by the owner (or the completion sweep) and never deleted.
type RentalRequest struct {
	ID         int       `json:"id"`
	ItemID     int       `json:"item_id"`
	RenterID   int       `json:"renter_id"`
	OwnerID    int       `json:"owner_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	TotalPrice float64   `json:"total_price"`
	Message    *string   `json:"message,omitempty"`
	Status     string    `json:"status"`
	ItemTitle  string    `json:"item_title,omitempty"`
	Renter     Profile   `json:"renter,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type SubmitRequestRequest struct {
	ItemID    int     `json:"item_id"`
	StartDate string  `json:"start_date"` // yyyy-mm-dd
	EndDate   string  `json:"end_date"`   // yyyy-mm-dd
	Message   *string `json:"message,omitempty"`
}

type DashboardSummary struct {
	MyItems         int `json:"my_items"`
	PendingRequests int `json:"pending_requests"`
	ActiveRentals   int `json:"active_rentals"`
	UnreadMessages  int `json:"unread_messages"`
}
