package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

type User struct {
	ID          int        `json:"id"`
	Email       string     `json:"email"`
	Password    string     `json:"password,omitempty"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	TrustScore  int        `json:"trust_score"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Profile is the public slice of a user shown next to listings and requests.
type Profile struct {
	UserID      int     `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	TrustScore  int     `json:"trust_score"`
}

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	UserID       int       `json:"user_id"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
