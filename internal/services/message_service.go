package services

import (
	"context"
	"errors"
	"strings"

	"microrental/internal/models"
	"microrental/internal/repositories"
)

var ErrEmptyMessage = errors.New("message text must not be empty")

type MessageService struct {
	MessageRepo *repositories.MessageRepository
}

func (s *MessageService) CreateMessage(ctx context.Context, message models.Message) (models.Message, error) {
	if strings.TrimSpace(message.Text) == "" {
		return models.Message{}, ErrEmptyMessage
	}
	user1ID, user2ID, err := s.MessageRepo.GetChatParticipants(ctx, message.ChatID)
	if err != nil {
		return models.Message{}, err
	}
	if message.SenderID != user1ID && message.SenderID != user2ID {
		return models.Message{}, models.ErrForbidden
	}
	if message.ReceiverID == 0 {
		if message.SenderID == user1ID {
			message.ReceiverID = user2ID
		} else {
			message.ReceiverID = user1ID
		}
	}
	return s.MessageRepo.CreateMessage(ctx, message)
}

func (s *MessageService) GetMessagesForChat(ctx context.Context, chatID, actingUserID, page, pageSize int) ([]models.Message, error) {
	user1ID, user2ID, err := s.MessageRepo.GetChatParticipants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if actingUserID != user1ID && actingUserID != user2ID {
		return nil, models.ErrForbidden
	}

	messages, err := s.MessageRepo.GetMessagesForChat(ctx, chatID, page, pageSize)
	if err != nil {
		return nil, err
	}
	// Opening a chat marks the reader's side as read.
	_ = s.MessageRepo.MarkRead(ctx, chatID, actingUserID)
	return messages, nil
}

func (s *MessageService) CountUnread(ctx context.Context, userID int) (int, error) {
	return s.MessageRepo.CountUnread(ctx, userID)
}
