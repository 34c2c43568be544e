package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"microrental/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

type ItemRepository struct {
	DB *sql.DB
}

func (r *ItemRepository) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	query := `
		INSERT INTO items (user_id, title, description, category, price_per_day, location, images, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	if item.Images == nil {
		item.Images = []string{}
	}
	imagesJSON, err := json.Marshal(item.Images)
	if err != nil {
		return models.Item{}, err
	}

	now := time.Now()
	err = r.DB.QueryRowContext(ctx, query,
		item.UserID,
		item.Title,
		item.Description,
		item.Category,
		item.PricePerDay,
		item.Location,
		string(imagesJSON),
		item.IsAvailable,
		now,
	).Scan(&item.ID)
	if err != nil {
		return models.Item{}, err
	}
	item.CreatedAt = now
	return item, nil
}

func (r *ItemRepository) GetItemByID(ctx context.Context, id int) (models.Item, error) {
	query := `
		SELECT i.id, i.user_id, i.title, i.description, i.category, i.price_per_day,
		       i.location, i.images, i.is_available, i.created_at, i.updated_at,
		       u.display_name, u.avatar_url, u.trust_score
		FROM items i
		JOIN users u ON i.user_id = u.id
		WHERE i.id = $1
	`

	var item models.Item
	var imagesJSON []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Description, &item.Category, &item.PricePerDay,
		&item.Location, &imagesJSON, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt,
		&item.Owner.DisplayName, &item.Owner.AvatarURL, &item.Owner.TrustScore,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, ErrItemNotFound
		}
		return models.Item{}, err
	}
	item.Owner.UserID = item.UserID
	if err := json.Unmarshal(imagesJSON, &item.Images); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) GetItemsByUserID(ctx context.Context, userID int) ([]models.Item, error) {
	query := `
		SELECT id, user_id, title, description, category, price_per_day,
		       location, images, is_available, created_at, updated_at
		FROM items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		var imagesJSON []byte
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Description, &item.Category, &item.PricePerDay,
			&item.Location, &imagesJSON, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(imagesJSON, &item.Images); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetFilteredItems applies the search screen's filters and reports the price
// bounds of the matching set alongside the requested page.
func (r *ItemRepository) GetFilteredItems(ctx context.Context, filter models.ItemFilterRequest) ([]models.Item, float64, float64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Categories) > 0 {
		placeholders := make([]string, 0, len(filter.Categories))
		for _, c := range filter.Categories {
			placeholders = append(placeholders, arg(c))
		}
		conditions = append(conditions, fmt.Sprintf("i.category IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.PriceFrom > 0 {
		conditions = append(conditions, fmt.Sprintf("i.price_per_day >= %s", arg(filter.PriceFrom)))
	}
	if filter.PriceTo > 0 {
		conditions = append(conditions, fmt.Sprintf("i.price_per_day <= %s", arg(filter.PriceTo)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("i.title ILIKE %s", arg("%"+q+"%")))
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "i.is_available = TRUE")
	}
	where := strings.Join(conditions, " AND ")

	var minPrice, maxPrice sql.NullFloat64
	boundsQuery := fmt.Sprintf(`SELECT MIN(i.price_per_day), MAX(i.price_per_day) FROM items i WHERE %s`, where)
	if err := r.DB.QueryRowContext(ctx, boundsQuery, args...).Scan(&minPrice, &maxPrice); err != nil {
		return nil, 0, 0, err
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.user_id, i.title, i.description, i.category, i.price_per_day,
		       i.location, i.images, i.is_available, i.created_at, i.updated_at,
		       u.display_name, u.avatar_url, u.trust_score
		FROM items i
		JOIN users u ON i.user_id = u.id
		WHERE %s
		ORDER BY i.created_at DESC
		LIMIT %s OFFSET %s
	`, where, arg(filter.Limit), arg((filter.Page-1)*filter.Limit))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		var imagesJSON []byte
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Description, &item.Category, &item.PricePerDay,
			&item.Location, &imagesJSON, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt,
			&item.Owner.DisplayName, &item.Owner.AvatarURL, &item.Owner.TrustScore,
		); err != nil {
			return nil, 0, 0, err
		}
		item.Owner.UserID = item.UserID
		if err := json.Unmarshal(imagesJSON, &item.Images); err != nil {
			return nil, 0, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}
	return items, minPrice.Float64, maxPrice.Float64, nil
}

func (r *ItemRepository) UpdateItem(ctx context.Context, item models.Item) (models.Item, error) {
	query := `
		UPDATE items
		SET title = $1, description = $2, category = $3, price_per_day = $4,
		    location = $5, images = $6, updated_at = $7
		WHERE id = $8
	`

	imagesJSON, err := json.Marshal(item.Images)
	if err != nil {
		return models.Item{}, err
	}
	now := time.Now()
	res, err := r.DB.ExecContext(ctx, query,
		item.Title, item.Description, item.Category, item.PricePerDay,
		item.Location, string(imagesJSON), now, item.ID,
	)
	if err != nil {
		return models.Item{}, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return models.Item{}, err
	}
	if rows == 0 {
		return models.Item{}, ErrItemNotFound
	}
	item.UpdatedAt = &now
	return item, nil
}

// SetAvailability is the owner's manual toggle. The lifecycle transitions
// write the flag themselves inside their own transactions.
func (r *ItemRepository) SetAvailability(ctx context.Context, itemID int, available bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE items SET is_available = $1, updated_at = $2 WHERE id = $3`,
		available, time.Now(), itemID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) DeleteItem(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) CountByUserID(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *ItemRepository) AppendImage(ctx context.Context, itemID int, url string) error {
	query := `
		UPDATE items
		SET images = images || to_jsonb($1::text), updated_at = $2
		WHERE id = $3 AND jsonb_array_length(images) < $4
	`

	res, err := r.DB.ExecContext(ctx, query, url, time.Now(), itemID, models.MaxItemImages)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}
