package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"microrental/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

// isUniqueViolation reports a Postgres unique constraint failure so handlers
// can answer with a clear validation response instead of a generic 500.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isExclusionViolation reports a Postgres exclusion constraint failure
// (class 23P01), raised by the no-overlap constraint on rental_requests.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (email, password, display_name, trust_score, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		user.Email,
		user.Password,
		user.DisplayName,
		user.TrustScore,
		user.Role,
		now,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, models.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	user.CreatedAt = now
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `
		SELECT id, email, password, display_name, avatar_url, trust_score, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.DisplayName, &user.AvatarURL,
		&user.TrustScore, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	query := `
		SELECT id, email, display_name, avatar_url, trust_score, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.AvatarURL,
		&user.TrustScore, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetProfileByUserID(ctx context.Context, userID int) (models.Profile, error) {
	query := `SELECT id, display_name, avatar_url, trust_score FROM users WHERE id = $1`

	var p models.Profile
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.TrustScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, models.ErrUserNotFound
		}
		return models.Profile{}, err
	}
	return p, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID int, displayName string, avatarURL *string) error {
	query := `
		UPDATE users
		SET display_name = $1, avatar_url = COALESCE($2, avatar_url), updated_at = $3
		WHERE id = $4
	`

	res, err := r.DB.ExecContext(ctx, query, displayName, avatarURL, time.Now(), userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) GetUserRole(ctx context.Context, userID int) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.ErrUserNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *UserRepository) CreateSession(ctx context.Context, session models.Session) error {
	query := `
		INSERT INTO sessions (user_id, role, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET refresh_token = $3, expires_at = $4
	`

	_, err := r.DB.ExecContext(ctx, query, session.UserID, session.Role, session.RefreshToken, session.ExpiresAt)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	query := `SELECT user_id, role, refresh_token, expires_at FROM sessions WHERE refresh_token = $1`

	var session models.Session
	err := r.DB.QueryRowContext(ctx, query, refreshToken).Scan(
		&session.UserID, &session.Role, &session.RefreshToken, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, nil
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}
