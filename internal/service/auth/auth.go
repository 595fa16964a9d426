package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/icntodo/todos/internal/apperrors"
	"github.com/icntodo/todos/internal/models"
	"github.com/icntodo/todos/internal/repository"
)

const (
	defaultRefreshCookieName = "refreshToken"
	defaultAccessAuthScheme  = "Bearer"
)

// DefaultHasher to share between services that hash or compare passwords
var DefaultHasher = BcryptHasher{}

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Manager that issues, redeems and parses tokens
type TokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	RevokeRefresh(ctx context.Context, refresh string) error
	ParseAccess(ctx context.Context, access string) (models.User, error)
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Name of the cookie that carries the refresh token
	// The refresh token travels only in this cookie, never in a JSON body
	RefreshCookieName string
}

type AuthService struct {
	token  TokenManager
	hasher PasswordHasher

	refreshCookieName string
	accessAuthScheme  string

	// Hash compared against when the username is unknown, so login does
	// roughly the same work for unknown-user and wrong-password outcomes
	dummyHash string

	userRepo repository.UserRepo
}

func NewService(cfg Config, token TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}

	dummyHash, err := hasher.Hash("any password will do")
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable. Err: %w", err)
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		refreshCookieName: cfg.RefreshCookieName,
		accessAuthScheme:  defaultAccessAuthScheme,
		dummyHash:         dummyHash,
		userRepo:          userRepo,
	}, nil
}

// Register creates the user
// No tokens are issued: the user logs in afterwards
func (s *AuthService) Register(ctx context.Context, username string, password string) (models.User, error) {
	var user models.User

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, username, hash)
	if err != nil {
		return user, err
	}

	return user, nil
}

// Login checks credentials and issues a fresh token pair
// Unknown username and wrong password are indistinguishable for the caller
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			return pair, apperrors.ErrInvalidCredentials
		}
		return pair, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("error while generating token pair. Err: %w", err)
	}

	return pair, nil
}

// RefreshPair redeems the refresh token and issues a replacement pair
// The redeemed token is revoked: it can be exchanged exactly once
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return pair, err
	}

	user, err := s.userRepo.GetUserByID(ctx, token.UserID)
	if err != nil {
		return pair, fmt.Errorf("error while loading token owner. Err: %w", err)
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("error while generating token pair. Err: %w", err)
	}

	return pair, nil
}

// Logout revokes the refresh token
// Idempotent: revoking an already revoked or unknown token still succeeds
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.token.RevokeRefresh(ctx, refresh)
}

// Auth returns the user carried by the bearer access token of the request
// Signature and expiry are the only checks, no storage lookup happens
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")

	scheme, access, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) {
		return models.User{}, apperrors.ErrAccessTokenInvalid
	}

	return s.token.ParseAccess(ctx, strings.TrimSpace(access))
}

// SetRefreshCookie writes the refresh token as HttpOnly strict cookie
// Max age equals the remaining token validity window
func (s *AuthService) SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie removes the refresh cookie from the client
func (s *AuthService) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ReadRefreshToken extracts the refresh token from the request cookie
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("%w. Err: no refresh cookie", apperrors.ErrRefreshTokenNotFound)
	}

	return cookie.Value, nil
}
