// Package service — AuthService handles registration, login, session token
// management and user lookup for the middleware.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const bcryptCost = 12

// Single message for both unknown email and wrong password, so login
// failures never reveal whether an account exists.
const invalidCredentials = "invalid email or password"

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      port.UserStore
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.UserStore, jwtSecret string, sessionTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	// The unique constraint on users.email is the authoritative guard; the
	// store reports the duplicate, no pre-check needed.
	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", created.ID),
		zap.String("email", created.Email),
	)

	return created, nil
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a bcrypt comparison anyway so response timing does not
		// distinguish unknown emails from wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(req.Password))
		return nil, &domain.ErrUnauthorized{Message: invalidCredentials}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: failed password attempt", zap.String("user_id", user.ID))
		return nil, &domain.ErrUnauthorized{Message: invalidCredentials}
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, nil
}

// ============================================================
// GetUser — session middleware and GET /v1/auth/me
// ============================================================

func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.GetUser")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "session user no longer exists"}
	}
	return user, nil
}

// ============================================================
// Session tokens
// ============================================================

// SessionClaims are the custom claims carried by a session token.
type SessionClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a session token for the user. The handler puts it
// in an httpOnly cookie; API clients may also send it as a bearer token.
func (s *AuthService) IssueSessionToken(userID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Sub:  userID,
		Type: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			Issuer:    "lead-manager",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken parses and verifies a session token, returning the
// user id it was issued for.
func (s *AuthService) ValidateSessionToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired session"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", &domain.ErrUnauthorized{Message: "invalid session"}
	}
	if claims.Type != "session" {
		return "", &domain.ErrUnauthorized{Message: "invalid session token type"}
	}
	return claims.Sub, nil
}

// SessionTTL exposes the configured session lifetime for cookie expiry.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}
