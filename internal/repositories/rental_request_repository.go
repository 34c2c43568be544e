package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"microrental/internal/booking"
	"microrental/internal/models"
)

var ErrRequestNotFound = errors.New("rental request not found")

type RentalRequestRepository struct {
	DB *sql.DB
}

// Submit persists a new pending request. Concurrent submissions for the same
// item serialize on a FOR UPDATE lock on the item row, so the overlap check
// always runs against the winner's committed insert; under READ COMMITTED a
// plain NOT EXISTS guard would let two racing transactions each miss the
// other's uncommitted row. The rental_requests_no_overlap exclusion
// constraint backstops the same invariant at the schema level; its violation
// maps to booking.ErrOverlap like the lost lock race does.
func (r *RentalRequestRepository) Submit(ctx context.Context, req models.RentalRequest) (models.RentalRequest, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.RentalRequest{}, err
	}
	defer tx.Rollback()

	var itemID int
	err = tx.QueryRowContext(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, req.ItemID).Scan(&itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RentalRequest{}, models.ErrItemNotFound
		}
		return models.RentalRequest{}, err
	}

	var overlaps bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM rental_requests
			WHERE item_id = $1
			  AND status IN ($2, $3)
			  AND start_date <= $5
			  AND end_date >= $4
		)
	`, req.ItemID, booking.StatusPending, booking.StatusAccepted, req.StartDate, req.EndDate).Scan(&overlaps)
	if err != nil {
		return models.RentalRequest{}, err
	}
	if overlaps {
		return models.RentalRequest{}, booking.ErrOverlap
	}

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rental_requests (item_id, renter_id, owner_id, start_date, end_date, total_price, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		req.ItemID,
		req.RenterID,
		req.OwnerID,
		req.StartDate,
		req.EndDate,
		req.TotalPrice,
		req.Message,
		booking.StatusPending,
		now,
	).Scan(&req.ID)
	if err != nil {
		if isExclusionViolation(err) {
			return models.RentalRequest{}, booking.ErrOverlap
		}
		return models.RentalRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.RentalRequest{}, err
	}
	req.Status = booking.StatusPending
	req.CreatedAt = now
	return req, nil
}

func (r *RentalRequestRepository) GetByID(ctx context.Context, id int) (models.RentalRequest, error) {
	query := `
		SELECT id, item_id, renter_id, owner_id, start_date, end_date, total_price, message, status, created_at
		FROM rental_requests
		WHERE id = $1
	`

	var req models.RentalRequest
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.ItemID, &req.RenterID, &req.OwnerID, &req.StartDate, &req.EndDate,
		&req.TotalPrice, &req.Message, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RentalRequest{}, ErrRequestNotFound
		}
		return models.RentalRequest{}, err
	}
	return req, nil
}

// ListReservingForItem returns the requests that currently reserve the
// item's calendar, i.e. pending and accepted ones.
func (r *RentalRequestRepository) ListReservingForItem(ctx context.Context, itemID int) ([]models.RentalRequest, error) {
	query := `
		SELECT id, item_id, renter_id, owner_id, start_date, end_date, total_price, message, status, created_at
		FROM rental_requests
		WHERE item_id = $1 AND status IN ($2, $3)
		ORDER BY start_date
	`

	return r.queryRequests(ctx, query, itemID, booking.StatusPending, booking.StatusAccepted)
}

func (r *RentalRequestRepository) ListForOwner(ctx context.Context, ownerID int, status string) ([]models.RentalRequest, error) {
	query := `
		SELECT rr.id, rr.item_id, rr.renter_id, rr.owner_id, rr.start_date, rr.end_date,
		       rr.total_price, rr.message, rr.status, rr.created_at,
		       i.title, u.display_name, u.avatar_url, u.trust_score
		FROM rental_requests rr
		JOIN items i ON rr.item_id = i.id
		JOIN users u ON rr.renter_id = u.id
		WHERE rr.owner_id = $1 AND ($2 = '' OR rr.status = $2)
		ORDER BY rr.created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.RentalRequest{}
	for rows.Next() {
		var req models.RentalRequest
		if err := rows.Scan(
			&req.ID, &req.ItemID, &req.RenterID, &req.OwnerID, &req.StartDate, &req.EndDate,
			&req.TotalPrice, &req.Message, &req.Status, &req.CreatedAt,
			&req.ItemTitle, &req.Renter.DisplayName, &req.Renter.AvatarURL, &req.Renter.TrustScore,
		); err != nil {
			return nil, err
		}
		req.Renter.UserID = req.RenterID
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *RentalRequestRepository) ListForRenter(ctx context.Context, renterID int) ([]models.RentalRequest, error) {
	query := `
		SELECT rr.id, rr.item_id, rr.renter_id, rr.owner_id, rr.start_date, rr.end_date,
		       rr.total_price, rr.message, rr.status, rr.created_at, i.title
		FROM rental_requests rr
		JOIN items i ON rr.item_id = i.id
		WHERE rr.renter_id = $1
		ORDER BY rr.created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.RentalRequest{}
	for rows.Next() {
		var req models.RentalRequest
		if err := rows.Scan(
			&req.ID, &req.ItemID, &req.RenterID, &req.OwnerID, &req.StartDate, &req.EndDate,
			&req.TotalPrice, &req.Message, &req.Status, &req.CreatedAt, &req.ItemTitle,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Accept flips the request to accepted and the item to unavailable in one
// transaction. The status update is optimistic: if a concurrent transition
// already moved the request out of pending, nothing is written and
// booking.ErrInvalidTransition is returned.
func (r *RentalRequestRepository) Accept(ctx context.Context, requestID, itemID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := booking.Apply(ctx, tx, requestID, booking.StatusPending, booking.StatusAccepted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrInvalidTransition
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET is_available = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now(), itemID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Reject moves a pending request to rejected. The item is untouched.
func (r *RentalRequestRepository) Reject(ctx context.Context, requestID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := booking.Apply(ctx, tx, requestID, booking.StatusPending, booking.StatusRejected); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrInvalidTransition
		}
		return err
	}
	return tx.Commit()
}

// CompleteExpired transitions accepted requests whose window has passed to
// completed and releases their items, unless another accepted request is
// still active for the same item. Re-running the sweep is a no-op for rows
// already completed: the status condition simply matches nothing.
func (r *RentalRequestRepository) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	today := booking.Today(now)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE rental_requests
		SET status = $1
		WHERE status = $2 AND end_date < $3
		RETURNING item_id
	`, booking.StatusCompleted, booking.StatusAccepted, today)
	if err != nil {
		return 0, err
	}
	itemIDs := []int{}
	for rows.Next() {
		var itemID int
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return 0, err
		}
		itemIDs = append(itemIDs, itemID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	// An accepted booking blocks the release only while it is actually
	// running; one that has not started yet leaves the item bookable for
	// the gap and the overlap rule guards its own window.
	for _, itemID := range itemIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE items
			SET is_available = TRUE, updated_at = $1
			WHERE id = $2 AND NOT EXISTS (
				SELECT 1 FROM rental_requests
				WHERE item_id = $2 AND status = $3
				  AND start_date <= $4 AND end_date >= $4
			)
		`, time.Now(), itemID, booking.StatusAccepted, today); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(itemIDs), nil
}

// CountOpenForItem counts pending and accepted requests; item deletion is
// blocked while this is non-zero to keep the ledger's audit trail intact.
func (r *RentalRequestRepository) CountOpenForItem(ctx context.Context, itemID int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rental_requests WHERE item_id = $1 AND status IN ($2, $3)`,
		itemID, booking.StatusPending, booking.StatusAccepted,
	).Scan(&count)
	return count, err
}

func (r *RentalRequestRepository) CountByOwnerAndStatus(ctx context.Context, ownerID int, status string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rental_requests WHERE owner_id = $1 AND status = $2`,
		ownerID, status,
	).Scan(&count)
	return count, err
}

func (r *RentalRequestRepository) CountActiveForRenter(ctx context.Context, renterID int, now time.Time) (int, error) {
	today := booking.Today(now)
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rental_requests WHERE renter_id = $1 AND status = $2 AND end_date >= $3`,
		renterID, booking.StatusAccepted, today,
	).Scan(&count)
	return count, err
}

func (r *RentalRequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]models.RentalRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.RentalRequest{}
	for rows.Next() {
		var req models.RentalRequest
		if err := rows.Scan(
			&req.ID, &req.ItemID, &req.RenterID, &req.OwnerID, &req.StartDate, &req.EndDate,
			&req.TotalPrice, &req.Message, &req.Status, &req.CreatedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
