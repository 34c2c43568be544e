package services

import (
	"context"
	"time"

	"microrental/internal/booking"
	"microrental/internal/models"
	"microrental/internal/repositories"
)

// DashboardService aggregates the counters shown on the dashboard landing
// screen.
type DashboardService struct {
	ItemRepo    *repositories.ItemRepository
	RequestRepo *repositories.RentalRequestRepository
	MessageRepo *repositories.MessageRepository
}

func (s *DashboardService) Summary(ctx context.Context, userID int) (models.DashboardSummary, error) {
	var summary models.DashboardSummary
	var err error

	summary.MyItems, err = s.ItemRepo.CountByUserID(ctx, userID)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	summary.PendingRequests, err = s.RequestRepo.CountByOwnerAndStatus(ctx, userID, booking.StatusPending)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	summary.ActiveRentals, err = s.RequestRepo.CountActiveForRenter(ctx, userID, time.Now())
	if err != nil {
		return models.DashboardSummary{}, err
	}
	summary.UnreadMessages, err = s.MessageRepo.CountUnread(ctx, userID)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	return summary, nil
}
