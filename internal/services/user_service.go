package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"microrental/internal/models"
	"microrental/internal/repositories"
	"microrental/utils"
)

const (
	accessTokenTTL  = 2 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

var ErrWeakPassword = errors.New("password must be at least 8 characters")

type UserService struct {
	UserRepo     *repositories.UserRepository
	TokenManager *utils.Manager
	SigningKey   string
}

func (s *UserService) SignUp(ctx context.Context, req models.SignUpRequest) (models.User, models.Tokens, error) {
	if len(req.Password) < 8 {
		return models.User{}, models.Tokens{}, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Email
	}

	user, err := s.UserRepo.CreateUser(ctx, models.User{
		Email:       req.Email,
		Password:    string(hashedPassword),
		DisplayName: displayName,
		TrustScore:  50,
		Role:        "user",
	})
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}
	user.Password = ""
	return user, tokens, nil
}

func (s *UserService) SignIn(ctx context.Context, req models.SignInRequest) (models.User, models.Tokens, error) {
	user, err := s.UserRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.User{}, models.Tokens{}, models.ErrInvalidCredentials
		}
		return models.User{}, models.Tokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return models.User{}, models.Tokens{}, models.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return models.User{}, models.Tokens{}, err
	}
	user.Password = ""
	return user, tokens, nil
}

// Refresh rotates the session: the presented refresh token must match a live
// session, and both tokens are reissued.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (models.Tokens, error) {
	session, err := s.UserRepo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return models.Tokens{}, err
	}
	if session == (models.Session{}) || session.ExpiresAt.Before(time.Now()) {
		return models.Tokens{}, models.ErrInvalidCredentials
	}

	user, err := s.UserRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return models.Tokens{}, err
	}
	return s.issueTokens(ctx, user)
}

func (s *UserService) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	return s.UserRepo.GetProfileByUserID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actingUserID, userID int, displayName string, avatarURL *string) error {
	if actingUserID != userID {
		return models.ErrForbidden
	}
	return s.UserRepo.UpdateProfile(ctx, userID, displayName, avatarURL)
}

func (s *UserService) issueTokens(ctx context.Context, user models.User) (models.Tokens, error) {
	claims := &models.Claims{
		UserID: uint(user.ID),
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(accessTokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SigningKey))
	if err != nil {
		return models.Tokens{}, err
	}

	refreshToken := ""
	if s.TokenManager != nil {
		refreshToken, err = s.TokenManager.NewRefreshToken()
		if err != nil {
			return models.Tokens{}, err
		}
	}
	if refreshToken == "" {
		refreshToken = uuid.New().String()
	}

	err = s.UserRepo.CreateSession(ctx, models.Session{
		UserID:       user.ID,
		Role:         user.Role,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return models.Tokens{}, err
	}

	return models.Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
