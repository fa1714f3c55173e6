package router

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"pilex/internal/gate"
	"pilex/internal/http/handlers"
	"pilex/internal/http/middleware"
)

func Setup(deps *handlers.Deps, g *gate.Gate) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging(deps.Logger))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps)
	adminHandler := handlers.NewAdminHandler(deps)
	contentHandler := handlers.NewContentHandler(deps)
	userHandler := handlers.NewUserHandler(deps)

	requireGate := deps.RequireGate(g)
	gated := func(fn handlers.HandlerFunc) http.Handler {
		return requireGate(deps.Handle(fn))
	}

	r.Handle("/pilex/login", deps.Handle(authHandler.Login)).Methods("GET", "POST")
	r.Handle("/pilex/logout", deps.Handle(authHandler.Logout)).Methods("GET")

	r.Handle("/pilex", gated(adminHandler.Dashboard)).Methods("GET")
	r.Handle("/pilex/dbupdate", gated(adminHandler.DBUpdate)).Methods("GET")
	r.Handle("/pilex/prefill", gated(adminHandler.PreFill)).Methods("GET")

	r.Handle("/pilex/overview/{contenttypeslug}", gated(contentHandler.Overview)).Methods("GET")
	r.Handle("/pilex/edit/{contenttypeslug}", gated(contentHandler.Edit)).Methods("GET", "POST")
	r.Handle("/pilex/edit/{contenttypeslug}/{id:[0-9]*}", gated(contentHandler.Edit)).Methods("GET", "POST")

	r.Handle("/pilex/users", gated(userHandler.List)).Methods("GET")
	r.Handle("/pilex/users/edit", gated(userHandler.Edit)).Methods("GET", "POST")
	r.Handle("/pilex/users/edit/{id:[0-9]*}", gated(userHandler.Edit)).Methods("GET", "POST")

	r.NotFoundHandler = withMiddleware(deps, deps.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return handlers.NotFound(errors.New("page not found"))
	}))
	r.MethodNotAllowedHandler = withMiddleware(deps, deps.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return &handlers.StatusError{Code: http.StatusMethodNotAllowed, Err: errors.New("method not allowed")}
	}))

	return r
}

// withMiddleware applies the router middlewares, which mux skips for its
// not-found and method-not-allowed handlers.
func withMiddleware(deps *handlers.Deps, h http.Handler) http.Handler {
	return middleware.RequestID(middleware.Logging(deps.Logger)(h))
}
