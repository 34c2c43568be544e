package repositories

import (
	"context"
	"database/sql"
	"errors"

	"microrental/internal/models"
)

type ChatRepository struct {
	DB *sql.DB
}

// GetOrCreateChat returns the existing one-to-one chat between two users or
// creates it. The unique index on the ordered pair absorbs a race between two
// concurrent creators; the loser re-reads.
func (r *ChatRepository) GetOrCreateChat(ctx context.Context, user1ID, user2ID int) (int, error) {
	var chatID int
	err := r.DB.QueryRowContext(ctx, `
		SELECT id FROM chats
		WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
		ORDER BY id ASC
		LIMIT 1
	`, user1ID, user2ID).Scan(&chatID)
	if err == nil {
		return chatID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO chats (user1_id, user2_id) VALUES ($1, $2) RETURNING id`,
		user1ID, user2ID,
	).Scan(&chatID)
	if err != nil {
		if isUniqueViolation(err) {
			return r.GetOrCreateChat(ctx, user1ID, user2ID)
		}
		return 0, err
	}
	return chatID, nil
}

func (r *ChatRepository) GetChatByID(ctx context.Context, id int) (models.Chat, error) {
	var chat models.Chat
	query := `SELECT id, user1_id, user2_id, created_at FROM chats WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&chat.ID, &chat.User1ID, &chat.User2ID, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Chat{}, models.ErrChatNotFound
		}
		return models.Chat{}, err
	}
	return chat, nil
}

func (r *ChatRepository) GetChatsByUserID(ctx context.Context, userID int) ([]models.Chat, error) {
	query := `
		SELECT c.id,
		       c.user1_id, u1.display_name, u1.avatar_url, u1.trust_score,
		       c.user2_id, u2.display_name, u2.avatar_url, u2.trust_score,
		       c.created_at
		FROM chats c
		JOIN users u1 ON c.user1_id = u1.id
		JOIN users u2 ON c.user2_id = u2.id
		WHERE c.user1_id = $1 OR c.user2_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.User1ID, &chat.User1.DisplayName, &chat.User1.AvatarURL, &chat.User1.TrustScore,
			&chat.User2ID, &chat.User2.DisplayName, &chat.User2.AvatarURL, &chat.User2.TrustScore,
			&chat.CreatedAt,
		); err != nil {
			return nil, err
		}
		chat.User1.UserID = chat.User1ID
		chat.User2.UserID = chat.User2ID
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}
