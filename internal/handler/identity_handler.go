package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/service"
)

// identityError is the provider's error body shape: a code string under
// error.message, which the storefront client switches on.
type identityError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func writeIdentityError(w http.ResponseWriter, status int, code string) {
	var body identityError
	body.Error.Message = code
	writeJSON(w, status, body)
}

// handleIdentityError maps service errors onto provider error codes.
func handleIdentityError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict

	switch {
	case errors.As(err, &validation):
		writeIdentityError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &unauthorized):
		writeIdentityError(w, http.StatusBadRequest, unauthorized.Message)
	case errors.As(err, &conflict):
		writeIdentityError(w, http.StatusBadRequest, "EMAIL_EXISTS")
	default:
		logger.Error("identity: unhandled error", zap.Error(err))
		writeIdentityError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
	}
}

func signUpHandler(identity *service.IdentityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /identity/v1/accounts:signUp")
		defer span.End()

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Name     string `json:"name"`
			UserType string `json:"userType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeIdentityError(w, http.StatusBadRequest, "INVALID_PAYLOAD")
			return
		}

		role := domain.ParseRole(req.UserType)
		if role == domain.RoleUnresolved {
			role = domain.RoleClient
		}

		grant, err := identity.SignUp(ctx, req.Email, req.Password, req.Name, role)
		if err != nil {
			handleIdentityError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, grant)
	}
}

func signInHandler(identity *service.IdentityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /identity/v1/accounts:signInWithPassword")
		defer span.End()

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeIdentityError(w, http.StatusBadRequest, "INVALID_PAYLOAD")
			return
		}

		grant, err := identity.SignInWithPassword(ctx, req.Email, req.Password)
		if err != nil {
			handleIdentityError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, grant)
	}
}

func identityProfileHandler(identity *service.IdentityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /identity/v1/profile")
		defer span.End()

		profile, err := identity.GetProfile(ctx, UIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
