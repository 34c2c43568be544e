package repositories

import (
	"context"
	"database/sql"
	"time"
)

type DeviceTokenRepository struct {
	DB *sql.DB
}

func (r *DeviceTokenRepository) SaveToken(ctx context.Context, userID int, token string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token) DO NOTHING
	`

	_, err := r.DB.ExecContext(ctx, query, userID, token, time.Now())
	return err
}

func (r *DeviceTokenRepository) GetTokensByUserID(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *DeviceTokenRepository) DeleteToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = $1`, token)
	return err
}
