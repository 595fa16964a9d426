package handlers

import (
	"context"
	"net/http"

	"github.com/icntodo/todos/internal/handlers/render"
	"github.com/icntodo/todos/internal/logger"
	"github.com/icntodo/todos/internal/service/suggest"
)

// Suggestion generator as the handler needs it
type Suggester interface {
	GenerateTasks(ctx context.Context, topic string, count int) ([]string, error)
}

type SuggestionsHandler struct {
	suggester Suggester
	logger    logger.Logger
}

func NewSuggestions(suggester Suggester, l logger.Logger) *SuggestionsHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &SuggestionsHandler{suggester: suggester, logger: l}
}

func (h *SuggestionsHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /suggestions", h.generate)

	return mux
}

func (h *SuggestionsHandler) generate(w http.ResponseWriter, r *http.Request) {
	type SuggestionsRequest struct {
		Input string `json:"input" validate:"required,min=1"`
		Count *int   `json:"count" validate:"omitempty,min=1,max=5"`
	}
	type SuggestionsResponse struct {
		Data []string `json:"data"`
	}

	data, err := render.BindAndValidate[SuggestionsRequest](w, r)
	if err != nil {
		return
	}

	count := suggest.DefaultCount
	if data.Count != nil {
		count = *data.Count
	}

	suggestions, err := h.suggester.GenerateTasks(r.Context(), data.Input, count)
	if err != nil {
		h.logger.Error("Suggestion generation failed", "error", err)
		render.InternalError(w)
		return
	}

	render.JSON(w, SuggestionsResponse{Data: suggestions})
}
