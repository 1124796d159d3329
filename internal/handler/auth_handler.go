package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/port"
	"github.com/vinayakry63/lead-manager/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func authRegisterHandler(authSvc *service.AuthService, cookieSecure bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/register")
		defer span.End()

		var req domain.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := authSvc.Register(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// Registration starts a session immediately, no separate login step.
		token, err := authSvc.IssueSessionToken(user.ID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		setSessionCookie(w, token, authSvc.SessionTTL(), cookieSecure)

		writeJSON(w, http.StatusCreated, domain.AuthResponse{
			Message: "registered successfully",
			User:    user,
		})
	}
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func authLoginHandler(authSvc *service.AuthService, cookieSecure bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		token, err := authSvc.IssueSessionToken(user.ID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		setSessionCookie(w, token, authSvc.SessionTTL(), cookieSecure)

		writeJSON(w, http.StatusOK, domain.AuthResponse{
			Message: "logged in successfully",
			User:    user,
		})
	}
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func authLogoutHandler(users port.Cache[*domain.User], cookieSecure bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		if userID := OwnerIDFromContext(r.Context()); userID != "" {
			users.Delete(userID)
			logger.Info("user logged out", zap.String("user_id", userID))
		}
		clearSessionCookie(w, cookieSecure)

		writeJSON(w, http.StatusOK, messageResponse{Message: "logged out successfully"})
	}
}

// ============================================================
// Me — GET /v1/auth/me
// ============================================================

func authMeHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/auth/me")
		defer span.End()

		user, err := authSvc.GetUser(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.AuthResponse{User: user})
	}
}
