package models

import (
	"errors"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrForbidden          = errors.New("models: action not permitted")
	ErrUserNotFound       = errors.New("models: user not found")
	ErrItemNotFound       = errors.New("models: item not found")
	ErrRequestNotFound    = errors.New("models: rental request not found")
	ErrChatNotFound       = errors.New("models: chat not found")
	ErrOpenRequests       = errors.New("models: item has open rental requests")
)
