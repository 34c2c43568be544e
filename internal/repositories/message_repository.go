package repositories

import (
	"context"
	"database/sql"
	"time"

	"microrental/internal/models"
)

type MessageRepository struct {
	DB *sql.DB
}

func (r *MessageRepository) CreateMessage(ctx context.Context, message models.Message) (models.Message, error) {
	query := `
		INSERT INTO messages (chat_id, sender_id, receiver_id, text, read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING id
	`

	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		message.ChatID, message.SenderID, message.ReceiverID, message.Text, now,
	).Scan(&message.ID)
	if err != nil {
		return models.Message{}, err
	}
	message.CreatedAt = now
	return message, nil
}

func (r *MessageRepository) GetMessagesForChat(ctx context.Context, chatID, page, pageSize int) ([]models.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, receiver_id, text, read, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(ctx, query, chatID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) MarkRead(ctx context.Context, chatID, readerID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE chat_id = $1 AND receiver_id = $2 AND read = FALSE`,
		chatID, readerID,
	)
	return err
}

func (r *MessageRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read = FALSE`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *MessageRepository) GetChatParticipants(ctx context.Context, chatID int) (int, int, error) {
	var user1ID, user2ID int
	err := r.DB.QueryRowContext(ctx,
		`SELECT user1_id, user2_id FROM chats WHERE id = $1`,
		chatID,
	).Scan(&user1ID, &user2ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, models.ErrChatNotFound
		}
		return 0, 0, err
	}
	return user1ID, user2ID, nil
}
