package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/icntodo/todos/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Create token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token even if it expired or revoked already
	// If the token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Set the token revoked and return it
	// The write is conditional: only a token with unset revoked_at may be revoked,
	// so two concurrent Revoke calls with the same value have exactly one winner.
	// The loser gets apperrors.ErrRefreshTokenRevoked
	// If the token not found must return apperrors.ErrRefreshTokenNotFound
	Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// ListTodosParams are filters for TodoRepo.ListTodos
type ListTodosParams struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
	Search         string
}

// Todo repository interface
// Every method is scoped by the owning user: a todo of another user behaves
// exactly like a missing one (apperrors.ErrTodoNotFound)
type TodoRepo interface {
	CreateTodo(ctx context.Context, userID uuid.UUID, text string) (models.Todo, error)
	ListTodos(ctx context.Context, userID uuid.UUID, params ListTodosParams) ([]models.Todo, error)
	UpdateTodo(ctx context.Context, userID uuid.UUID, todoID uuid.UUID, text *string) (models.Todo, error)

	// Soft delete: sets deleted_at, the row stays in the table
	DeleteTodo(ctx context.Context, userID uuid.UUID, todoID uuid.UUID) (models.Todo, error)
}
