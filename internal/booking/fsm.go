package booking

import (
	"context"
	"database/sql"
	"errors"
)

// Status constants for the rental request state machine.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

var ErrInvalidTransition = errors.New("booking: invalid status transition")

var transitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusAccepted: {},
		StatusRejected: {},
	},
	StatusAccepted: {
		StatusCompleted: {},
	},
	StatusRejected:  {},
	StatusCompleted: {},
}

// IsTerminal reports whether no further transition is permitted from status.
func IsTerminal(status string) bool {
	allowed, ok := transitions[status]
	return ok && len(allowed) == 0
}

// CanTransition returns whether a request can move from the current status to
// the target status. A request never re-enters pending.
func CanTransition(from, to string) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Apply updates a request status using optimistic validation: the UPDATE is
// conditioned on the status still being fromStatus, so of two concurrent
// transitions only the first wins and the second observes sql.ErrNoRows.
func Apply(ctx context.Context, tx *sql.Tx, requestID int, fromStatus, toStatus string) error {
	if !CanTransition(fromStatus, toStatus) {
		return ErrInvalidTransition
	}
	res, err := tx.ExecContext(ctx, `UPDATE rental_requests SET status = $1 WHERE id = $2 AND status = $3`, toStatus, requestID, fromStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
