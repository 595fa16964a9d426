package middleware

import (
	"context"
	"net/http"

	"github.com/icntodo/todos/internal/handlers"
	"github.com/icntodo/todos/internal/handlers/render"
	"github.com/icntodo/todos/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type AuthMiddleware struct {
	auth authService
}

func NewAuth(auth authService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Auth rejects requests without a valid bearer access token and puts the
// token's user into the request context
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.auth.Auth(r.Context(), r)
		if err != nil {
			render.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := handlers.NewContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
