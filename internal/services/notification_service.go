package services

import (
	"context"
	"log"

	"firebase.google.com/go/messaging"

	"microrental/internal/repositories"
)

// NotificationService pushes request outcomes to the user's registered
// devices over FCM. Without a configured client it degrades to logging, so
// the booking flow never depends on push being available.
type NotificationService struct {
	Client    *messaging.Client
	TokenRepo *repositories.DeviceTokenRepository
	InfoLog   *log.Logger
	ErrorLog  *log.Logger
}

func (s *NotificationService) RegisterToken(ctx context.Context, userID int, token string) error {
	return s.TokenRepo.SaveToken(ctx, userID, token)
}

func (s *NotificationService) Notify(ctx context.Context, userID int, title, body string) {
	if s.Client == nil {
		if s.InfoLog != nil {
			s.InfoLog.Printf("notify user=%d: %s: %s", userID, title, body)
		}
		return
	}

	tokens, err := s.TokenRepo.GetTokensByUserID(ctx, userID)
	if err != nil {
		if s.ErrorLog != nil {
			s.ErrorLog.Printf("notify user=%d: load tokens: %v", userID, err)
		}
		return
	}

	for _, token := range tokens {
		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
		}
		if _, err := s.Client.Send(ctx, msg); err != nil {
			if s.ErrorLog != nil {
				s.ErrorLog.Printf("notify user=%d token=%s: %v", userID, token, err)
			}
			// Tokens rejected by FCM are dead; drop them so we stop retrying.
			if messaging.IsRegistrationTokenNotRegistered(err) {
				_ = s.TokenRepo.DeleteToken(ctx, token)
			}
		}
	}
}
