package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microrental/internal/booking"
	"microrental/internal/models"
)

// RequestLedger is the persistence contract for rental requests. Submit must
// be atomic with respect to the overlap check (see the repository
// implementation); Accept must couple the status flip with the item
// availability flip in one transaction.
type RequestLedger interface {
	Submit(ctx context.Context, req models.RentalRequest) (models.RentalRequest, error)
	GetByID(ctx context.Context, id int) (models.RentalRequest, error)
	ListReservingForItem(ctx context.Context, itemID int) ([]models.RentalRequest, error)
	ListForOwner(ctx context.Context, ownerID int, status string) ([]models.RentalRequest, error)
	ListForRenter(ctx context.Context, renterID int) ([]models.RentalRequest, error)
	Accept(ctx context.Context, requestID, itemID int) error
	Reject(ctx context.Context, requestID int) error
	CompleteExpired(ctx context.Context, now time.Time) (int, error)
}

// ItemCatalog is the slice of the item store the booking flow needs.
type ItemCatalog interface {
	GetItemByID(ctx context.Context, id int) (models.Item, error)
}

// Notifier delivers a short user-facing note about a request outcome.
type Notifier interface {
	Notify(ctx context.Context, userID int, title, body string)
}

// ChatOpener lets a submitted request open a conversation between the two
// parties so the renter's message lands somewhere the owner will see it.
type ChatOpener interface {
	GetOrCreateChat(ctx context.Context, user1ID, user2ID int) (int, error)
}

type MessageWriter interface {
	CreateMessage(ctx context.Context, message models.Message) (models.Message, error)
}

type RentalRequestService struct {
	Ledger   RequestLedger
	Catalog  ItemCatalog
	Notifier Notifier
	Chats    ChatOpener
	Messages MessageWriter
}

// Submit validates the proposed window and persists a pending request. The
// total price is frozen at submission time; later price edits on the item do
// not touch existing requests.
func (s *RentalRequestService) Submit(ctx context.Context, renterID int, in models.SubmitRequestRequest) (models.RentalRequest, error) {
	rng, err := booking.ParseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return models.RentalRequest{}, fmt.Errorf("invalid date range: %w", err)
	}

	item, err := s.Catalog.GetItemByID(ctx, in.ItemID)
	if err != nil {
		return models.RentalRequest{}, err
	}

	reserving, err := s.Ledger.ListReservingForItem(ctx, item.ID)
	if err != nil {
		return models.RentalRequest{}, err
	}

	total, err := booking.Validate(item, reserving, renterID, rng, time.Now())
	if err != nil {
		return models.RentalRequest{}, err
	}

	req, err := s.Ledger.Submit(ctx, models.RentalRequest{
		ItemID:     item.ID,
		RenterID:   renterID,
		OwnerID:    item.UserID,
		StartDate:  rng.Start,
		EndDate:    rng.End,
		TotalPrice: total,
		Message:    in.Message,
	})
	if err != nil {
		return models.RentalRequest{}, err
	}
	req.ItemTitle = item.Title

	s.openConversation(ctx, req)
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, item.UserID, "New rental request",
			fmt.Sprintf("Someone wants to rent %q from %s to %s", item.Title, in.StartDate, in.EndDate))
	}
	return req, nil
}

// Accept transitions a pending request to accepted and marks the item
// unavailable. Only the owner may accept; of two concurrent accepts only one
// wins, the other observes the request already transitioned.
func (s *RentalRequestService) Accept(ctx context.Context, requestID, actingUserID int) error {
	req, err := s.Ledger.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.OwnerID != actingUserID {
		return models.ErrForbidden
	}
	if req.Status != booking.StatusPending {
		return booking.ErrInvalidTransition
	}

	if err := s.Ledger.Accept(ctx, requestID, req.ItemID); err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, req.RenterID, "Request accepted", "Your rental request was accepted")
	}
	return nil
}

func (s *RentalRequestService) Reject(ctx context.Context, requestID, actingUserID int) error {
	req, err := s.Ledger.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.OwnerID != actingUserID {
		return models.ErrForbidden
	}
	if req.Status != booking.StatusPending {
		return booking.ErrInvalidTransition
	}

	if err := s.Ledger.Reject(ctx, requestID); err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, req.RenterID, "Request rejected", "Your rental request was rejected")
	}
	return nil
}

// CompleteExpired is the time-triggered completion transition, driven by the
// sweeper in cmd. It is idempotent; re-running it finds nothing to do.
func (s *RentalRequestService) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	return s.Ledger.CompleteExpired(ctx, now)
}

func (s *RentalRequestService) ListForOwner(ctx context.Context, ownerID int, status string) ([]models.RentalRequest, error) {
	switch status {
	case "", booking.StatusPending, booking.StatusAccepted, booking.StatusRejected, booking.StatusCompleted:
	default:
		return nil, errors.New("unknown status filter")
	}
	return s.Ledger.ListForOwner(ctx, ownerID, status)
}

func (s *RentalRequestService) ListForRenter(ctx context.Context, renterID int) ([]models.RentalRequest, error) {
	return s.Ledger.ListForRenter(ctx, renterID)
}

func (s *RentalRequestService) openConversation(ctx context.Context, req models.RentalRequest) {
	if s.Chats == nil {
		return
	}
	chatID, err := s.Chats.GetOrCreateChat(ctx, req.RenterID, req.OwnerID)
	if err != nil {
		return
	}
	if s.Messages == nil || req.Message == nil || *req.Message == "" {
		return
	}
	_, _ = s.Messages.CreateMessage(ctx, models.Message{
		ChatID:     chatID,
		SenderID:   req.RenterID,
		ReceiverID: req.OwnerID,
		Text:       *req.Message,
	})
}
