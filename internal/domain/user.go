package domain

import (
	"strings"
	"time"
)

// ============================================================
// Auth — Request / Response types (matches frontend API contract)
// ============================================================

// User is an account that owns leads. The password hash never leaves the
// backend; the JSON shape matches what the frontend auth context expects
// (camelCase, unlike the lead payloads).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate checks the registration payload.
func (r *RegisterRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < 6 {
		return &ErrValidation{Field: "password", Message: "must be at least 6 characters"}
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return &ErrValidation{Field: "firstName", Message: "must not be empty"}
	}
	if strings.TrimSpace(r.LastName) == "" {
		return &ErrValidation{Field: "lastName", Message: "must not be empty"}
	}
	return nil
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r *LoginRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return &ErrValidation{Field: "password", Message: "must not be empty"}
	}
	return nil
}

// AuthResponse is the body for register/login/me responses.
type AuthResponse struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
}
