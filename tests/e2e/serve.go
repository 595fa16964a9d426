package e2e

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/icntodo/todos/internal/handlers"
	"github.com/icntodo/todos/internal/handlers/middleware"
	"github.com/icntodo/todos/internal/repository/postgres"
	"github.com/icntodo/todos/internal/service/auth"
	"github.com/icntodo/todos/internal/service/auth/tokenmanager"
	"github.com/icntodo/todos/internal/service/todo"
	"github.com/icntodo/todos/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	TodoService *todo.TodoService
}

// suggesterFunc allows a plain function to serve as suggestions backend
// The real completion API is never called from tests
type suggesterFunc func(ctx context.Context, topic string, count int) ([]string, error)

func (f suggesterFunc) GenerateTasks(ctx context.Context, topic string, count int) ([]string, error) {
	return f(ctx, topic, count)
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use it with repositories
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}
		todoRepo := &postgres.TodoRepo{DB: tx}

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, refreshRepo)
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, userRepo)
		require.NoError(t, err, "auth service starting error", err)

		ts := todo.NewService(todoRepo)
		suggester := suggesterFunc(func(ctx context.Context, topic string, count int) ([]string, error) {
			return []string{"first", "second", "third"}, nil
		})

		// Initialize handlers
		authHandler := handlers.NewAuth(as, nil)
		todoHandler := handlers.NewTodo(ts, nil)
		suggestionsHandler := handlers.NewSuggestions(suggester, nil)
		authMiddleware := middleware.NewAuth(as)

		// Complete all together as router
		router := handlers.NewRouter(
			authHandler,
			todoHandler,
			suggestionsHandler,
			authMiddleware.Auth,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService: as,
			TodoService: ts,
		})
	})
}
