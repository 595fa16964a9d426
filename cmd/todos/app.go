package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/icntodo/todos/internal/db"
	"github.com/icntodo/todos/internal/handlers"
	"github.com/icntodo/todos/internal/handlers/middleware"
	"github.com/icntodo/todos/internal/logger"
	"github.com/icntodo/todos/internal/repository/postgres"
	"github.com/icntodo/todos/internal/service/auth"
	"github.com/icntodo/todos/internal/service/auth/tokenmanager"
	"github.com/icntodo/todos/internal/service/suggest"
	"github.com/icntodo/todos/internal/service/todo"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	userRepo := &postgres.UserRepo{DB: pool}
	refreshRepo := &postgres.RefreshTokenRepo{DB: pool}
	todoRepo := &postgres.TodoRepo{DB: pool}

	// Initialize services
	tokenManager, err := tokenmanager.New(
		tokenmanager.Config{SecretKey: c.SecretKey, Issuer: c.TokenIssuer},
		refreshRepo,
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, userRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	todoService := todo.NewService(todoRepo)
	suggestClient := suggest.NewClient(
		suggest.Config{APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL, Model: c.OpenAIModel},
		logger,
	)

	// Initialize handlers
	authHandler := handlers.NewAuth(authService, logger)
	todoHandler := handlers.NewTodo(todoService, logger)
	suggestionsHandler := handlers.NewSuggestions(suggestClient, logger)
	authMiddleware := middleware.NewAuth(authService)

	mux := handlers.NewRouter(
		authHandler,
		todoHandler,
		suggestionsHandler,
		authMiddleware.Auth,
		middleware.LoggerMiddleware(logger),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
