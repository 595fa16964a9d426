package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/icntodo/todos/internal/apperrors"
	"github.com/icntodo/todos/internal/models"
	"github.com/icntodo/todos/internal/repository"
)

type TodoRepo struct {
	DB DBTX
}

const createTodo = `-- name: CreateTodo
INSERT INTO todos (user_id, text)
VALUES ($1, $2)
RETURNING id, user_id, text, created_at, updated_at, deleted_at
`

func (r *TodoRepo) CreateTodo(ctx context.Context, userID uuid.UUID, text string) (models.Todo, error) {
	rows, _ := r.DB.Query(ctx, createTodo, userID, text)
	todo, err := pgx.CollectOneRow(rows, rowToTodo)
	if err != nil {
		return todo, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

const listTodos = `-- name: ListTodos
SELECT id, user_id, text, created_at, updated_at, deleted_at
FROM todos
WHERE user_id = $1
  AND ($2 OR deleted_at IS NULL)
  AND ($3 = '' OR text ILIKE '%' || $3 || '%')
ORDER BY created_at, id
LIMIT $4 OFFSET $5
`

func (r *TodoRepo) ListTodos(ctx context.Context, userID uuid.UUID, params repository.ListTodosParams) ([]models.Todo, error) {
	rows, _ := r.DB.Query(ctx, listTodos, userID, params.IncludeDeleted, params.Search, params.Limit, params.Offset)
	todos, err := pgx.CollectRows(rows, rowToTodo)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todos, nil
}

const updateTodo = `-- name: UpdateTodo owned by the user
UPDATE todos
SET text = COALESCE($3, text), updated_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
RETURNING id, user_id, text, created_at, updated_at, deleted_at
`

func (r *TodoRepo) UpdateTodo(ctx context.Context, userID uuid.UUID, todoID uuid.UUID, text *string) (models.Todo, error) {
	rows, _ := r.DB.Query(ctx, updateTodo, todoID, userID, text)
	todo, err := pgx.CollectOneRow(rows, rowToTodo)

	switch {
	case err == nil:
		return todo, nil
	case errors.Is(err, pgx.ErrNoRows):
		return todo, apperrors.ErrTodoNotFound
	default:
		return todo, fmt.Errorf("db error: %w", err)
	}
}

const deleteTodo = `-- name: DeleteTodo (soft) owned by the user
UPDATE todos
SET deleted_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
RETURNING id, user_id, text, created_at, updated_at, deleted_at
`

// DeleteTodo soft deletes the row, it stays in the table for audit
// Deleting an already deleted or foreign todo returns ErrTodoNotFound
func (r *TodoRepo) DeleteTodo(ctx context.Context, userID uuid.UUID, todoID uuid.UUID) (models.Todo, error) {
	rows, _ := r.DB.Query(ctx, deleteTodo, todoID, userID)
	todo, err := pgx.CollectOneRow(rows, rowToTodo)

	switch {
	case err == nil:
		return todo, nil
	case errors.Is(err, pgx.ErrNoRows):
		return todo, apperrors.ErrTodoNotFound
	default:
		return todo, fmt.Errorf("db error: %w", err)
	}
}

func rowToTodo(row pgx.CollectableRow) (models.Todo, error) {
	var t models.Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	return t, err
}
