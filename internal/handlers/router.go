package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	todoHandler *TodoHandler,
	suggestionsHandler *SuggestionsHandler,
	authMiddleware func(next http.Handler) http.Handler,
	commonMiddlewares ...func(next http.Handler) http.Handler,
) http.Handler {
	root := http.NewServeMux()

	// Auth endpoints are public, the rest requires a bearer access token
	root.Handle("/auth/", http.StripPrefix("/auth", authHandler.Handler()))

	todos := authMiddleware(todoHandler.Handler())
	root.Handle("/todos", todos)
	root.Handle("/todos/", todos)

	root.Handle("/suggestions", authMiddleware(suggestionsHandler.Handler()))

	return chain(root, commonMiddlewares...)
}
