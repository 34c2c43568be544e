package services

import (
	"context"

	"microrental/internal/models"
	"microrental/internal/repositories"
)

type ChatService struct {
	ChatRepo *repositories.ChatRepository
}

func (s *ChatService) GetOrCreateChat(ctx context.Context, user1ID, user2ID int) (int, error) {
	return s.ChatRepo.GetOrCreateChat(ctx, user1ID, user2ID)
}

// GetChatByID only hands the chat to one of its participants.
func (s *ChatService) GetChatByID(ctx context.Context, chatID, actingUserID int) (models.Chat, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if chat.User1ID != actingUserID && chat.User2ID != actingUserID {
		return models.Chat{}, models.ErrForbidden
	}
	return chat, nil
}

func (s *ChatService) GetChatsByUserID(ctx context.Context, userID int) ([]models.Chat, error) {
	return s.ChatRepo.GetChatsByUserID(ctx, userID)
}
