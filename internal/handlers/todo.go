package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/icntodo/todos/internal/apperrors"
	"github.com/icntodo/todos/internal/handlers/render"
	"github.com/icntodo/todos/internal/logger"
	"github.com/icntodo/todos/internal/models"
	"github.com/icntodo/todos/internal/service/todo"
)

// Todo service as the handler needs it
type TodoService interface {
	Create(ctx context.Context, user *models.User, text string) (models.Todo, error)
	List(ctx context.Context, user *models.User, params todo.ListParams) ([]models.Todo, error)
	Update(ctx context.Context, user *models.User, todoID uuid.UUID, text *string) (models.Todo, error)
	Delete(ctx context.Context, user *models.User, todoID uuid.UUID) (models.Todo, error)
}

type todoResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

func newTodoResponse(t models.Todo) todoResponse {
	return todoResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		DeletedAt: t.DeletedAt,
	}
}

type TodoHandler struct {
	todos  TodoService
	logger logger.Logger
}

func NewTodo(todos TodoService, l logger.Logger) *TodoHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &TodoHandler{todos: todos, logger: l}
}

// Handler routes with full paths, the router mounts it without stripping
func (h *TodoHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /todos", h.create)
	mux.HandleFunc("GET /todos", h.list)
	mux.HandleFunc("PUT /todos/{id}", h.update)
	mux.HandleFunc("DELETE /todos/{id}", h.delete)

	return mux
}

func (h *TodoHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateRequest struct {
		Text string `json:"text" validate:"required,min=1"`
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		render.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[CreateRequest](w, r)
	if err != nil {
		return
	}

	created, err := h.todos.Create(r.Context(), &user, data.Text)
	if err != nil {
		h.logger.Error("Todo creation failed", "error", err)
		render.InternalError(w)
		return
	}

	render.JSONStatus(w, newTodoResponse(created), http.StatusCreated)
}

func (h *TodoHandler) list(w http.ResponseWriter, r *http.Request) {
	type ListResponse struct {
		Page  int            `json:"page"`
		Limit int            `json:"limit"`
		Data  []todoResponse `json:"data"`
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		render.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	params, fieldErrs := parseListQuery(r)
	if len(fieldErrs) > 0 {
		render.FieldErrors(w, fieldErrs)
		return
	}

	todos, err := h.todos.List(r.Context(), &user, params)
	if err != nil {
		h.logger.Error("Todo listing failed", "error", err)
		render.InternalError(w)
		return
	}

	data := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		data = append(data, newTodoResponse(t))
	}

	render.JSON(w, ListResponse{Page: params.Page, Limit: params.Limit, Data: data})
}

func (h *TodoHandler) update(w http.ResponseWriter, r *http.Request) {
	type UpdateRequest struct {
		Text *string `json:"text" validate:"omitempty,min=1"`
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		render.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	todoID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		// Malformed ids behave like missing ones
		render.Error(w, "Not found", http.StatusNotFound)
		return
	}

	data, err := render.BindAndValidate[UpdateRequest](w, r)
	if err != nil {
		return
	}

	updated, err := h.todos.Update(r.Context(), &user, todoID, data.Text)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTodoNotFound):
			render.Error(w, "Not found", http.StatusNotFound)
		default:
			h.logger.Error("Todo update failed", "error", err)
			render.InternalError(w)
		}
		return
	}

	render.JSON(w, newTodoResponse(updated))
}

func (h *TodoHandler) delete(w http.ResponseWriter, r *http.Request) {
	type DeleteSuccessResponse struct {
		Success bool `json:"success"`
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		render.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	todoID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Error(w, "Not found", http.StatusNotFound)
		return
	}

	_, err = h.todos.Delete(r.Context(), &user, todoID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTodoNotFound):
			render.Error(w, "Not found", http.StatusNotFound)
		default:
			h.logger.Error("Todo deletion failed", "error", err)
			render.InternalError(w)
		}
		return
	}

	render.JSON(w, DeleteSuccessResponse{Success: true})
}

// parseListQuery reads page, limit, includeDeleted and q from the url query
// Defaults: page 1, limit 20; limit is capped at 100, q at 100 characters
func parseListQuery(r *http.Request) (todo.ListParams, []render.FieldError) {
	params := todo.ListParams{Page: todo.DefaultPage, Limit: todo.DefaultLimit}
	var fieldErrs []render.FieldError

	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fieldErrs = append(fieldErrs, render.FieldError{Path: "page", Message: "Must be an integer of 1 or more", Code: "min"})
		} else {
			params.Page = page
		}
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil || limit < 1:
			fieldErrs = append(fieldErrs, render.FieldError{Path: "limit", Message: "Must be an integer of 1 or more", Code: "min"})
		case limit > todo.MaxLimit:
			fieldErrs = append(fieldErrs, render.FieldError{Path: "limit", Message: "Value is too big (maximum 100)", Code: "max"})
		default:
			params.Limit = limit
		}
	}

	if raw := query.Get("includeDeleted"); raw != "" {
		includeDeleted, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrs = append(fieldErrs, render.FieldError{Path: "includeDeleted", Message: "Must be a boolean", Code: "boolean"})
		} else {
			params.IncludeDeleted = includeDeleted
		}
	}

	if q := query.Get("q"); q != "" {
		if len(q) > 100 {
			fieldErrs = append(fieldErrs, render.FieldError{Path: "q", Message: "Value is too long (maximum 100)", Code: "max"})
		} else {
			params.Search = q
		}
	}

	return params, fieldErrs
}
