package todo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/icntodo/todos/internal/models"
	"github.com/icntodo/todos/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListParams are the list filters as the transport layer parsed them
type ListParams struct {
	Page           int
	Limit          int
	IncludeDeleted bool
	Search         string
}

type TodoService struct {
	todoRepo repository.TodoRepo
}

func NewService(todoRepo repository.TodoRepo) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

func (s *TodoService) Create(ctx context.Context, user *models.User, text string) (models.Todo, error) {
	todo, err := s.todoRepo.CreateTodo(ctx, user.ID, text)
	if err != nil {
		return todo, fmt.Errorf("error while creating todo. Err: %w", err)
	}

	return todo, nil
}

// List returns the user's todos only, paginated
// Soft deleted rows are filtered out unless IncludeDeleted is set
func (s *TodoService) List(ctx context.Context, user *models.User, params ListParams) ([]models.Todo, error) {
	if params.Page < 1 {
		params.Page = DefaultPage
	}
	if params.Limit < 1 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}

	todos, err := s.todoRepo.ListTodos(ctx, user.ID, repository.ListTodosParams{
		Limit:          params.Limit,
		Offset:         (params.Page - 1) * params.Limit,
		IncludeDeleted: params.IncludeDeleted,
		Search:         params.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("error while listing todos. Err: %w", err)
	}

	return todos, nil
}

// Update changes the todo text if the user owns it
// text == nil keeps the current text and only bumps updated_at
func (s *TodoService) Update(ctx context.Context, user *models.User, todoID uuid.UUID, text *string) (models.Todo, error) {
	return s.todoRepo.UpdateTodo(ctx, user.ID, todoID, text)
}

func (s *TodoService) Delete(ctx context.Context, user *models.User, todoID uuid.UUID) (models.Todo, error) {
	return s.todoRepo.DeleteTodo(ctx, user.ID, todoID)
}
