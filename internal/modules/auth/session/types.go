package session

import (
	"errors"
	"time"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CallbackURL string `json:"callbackURL"`
}

type CheckEmailDTO struct {
	Email string `json:"email"`
}

// Issued is the result of creating or rotating a session.
type Issued struct {
	SessionID        string
	RefreshToken     string
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
}

// Identity is the projection of a valid session joined with its user.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

var (
	// ErrNotFound means no session row holds the presented refresh token.
	// A token consumed by a concurrent rotation surfaces the same way.
	ErrNotFound = errors.New("session not found")
	// ErrRefreshExpired means the row exists but its refresh window passed.
	ErrRefreshExpired = errors.New("refresh token expired")
)

const (
	maxEmailLength    = 255
	maxNameLength     = 255
	minPasswordLength = 8

	defaultCallbackURL = "/dashboard"
)
