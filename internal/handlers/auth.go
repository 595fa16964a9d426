package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/icntodo/todos/internal/apperrors"
	"github.com/icntodo/todos/internal/handlers/render"
	"github.com/icntodo/todos/internal/logger"
	"github.com/icntodo/todos/internal/models"
)

// Auth service as the handler needs it
type AuthService interface {
	Register(ctx context.Context, username string, password string) (models.User, error)
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)
	Logout(ctx context.Context, refresh string) error

	SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken)
	ClearRefreshCookie(w http.ResponseWriter)
	ReadRefreshToken(r *http.Request) (string, error)
}

// Access token payload returned on login and refresh
// The refresh token itself travels only in the cookie
type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   int64  `json:"expiresAt"`
}

func newTokenResponse(pair models.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken: pair.Access.Value,
		TokenType:   "Bearer",
		ExpiresAt:   pair.Access.ExpiresAt.Unix(),
	}
}

type AuthHandler struct {
	auth   AuthService
	logger logger.Logger
}

func NewAuth(auth AuthService, l logger.Logger) *AuthHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &AuthHandler{auth: auth, logger: l}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username string `json:"username" validate:"required,min=3"`
		Password string `json:"password" validate:"required,min=6"`
	}
	type RegisterSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.auth.Register(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Error(w, "Username already taken", http.StatusConflict)
		default:
			h.logger.Error("Registration failed", "error", err)
			render.InternalError(w)
		}
		return
	}

	render.JSONStatus(w, RegisterSuccessResponse{Message: "User registered successfully"}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Error(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			h.logger.Error("Login failed", "error", err)
			render.InternalError(w)
		}
		return
	}

	h.auth.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, newTokenResponse(pair))
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	refresh, err := h.auth.ReadRefreshToken(r)
	if err != nil {
		render.Error(w, "Missing refresh token", http.StatusUnauthorized)
		return
	}

	pair, err := h.auth.RefreshPair(r.Context(), refresh)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
			errors.Is(err, apperrors.ErrRefreshTokenRevoked),
			errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.Error(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("Token refresh failed", "error", err)
			render.InternalError(w)
		}
		return
	}

	h.auth.SetRefreshCookie(w, pair.Refresh)
	render.JSON(w, newTokenResponse(pair))
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	refresh, err := h.auth.ReadRefreshToken(r)
	if err != nil {
		render.Error(w, "Missing refresh token", http.StatusBadRequest)
		return
	}

	if err := h.auth.Logout(r.Context(), refresh); err != nil {
		h.logger.Error("Logout failed", "error", err)
		render.InternalError(w)
		return
	}

	h.auth.ClearRefreshCookie(w)
	render.JSON(w, LogoutSuccessResponse{Message: "Logged out successfully"})
}
