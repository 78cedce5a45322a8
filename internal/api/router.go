package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the HTTP surface. All catalog endpoints live under
// /api/v1/movies.
func NewRouter(handler *MovieHandler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID)
	router.Use(AccessLog(logger))

	router.HandleFunc("/healthz", handler.Healthz).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	moviesRouter := apiRouter.PathPrefix("/movies").Subrouter()
	moviesRouter.HandleFunc("", handler.ListMovies).Methods(http.MethodGet)
	moviesRouter.HandleFunc("", handler.CreateMovie).Methods(http.MethodPost)
	moviesRouter.HandleFunc("/{movieId}", handler.GetMovie).Methods(http.MethodGet)
	moviesRouter.HandleFunc("/{movieId}", handler.UpdateMovie).Methods(http.MethodPut)
	moviesRouter.HandleFunc("/{movieId}", handler.DeleteMovie).Methods(http.MethodDelete)
	moviesRouter.HandleFunc("/{movieId}/ratings", handler.AddRating).Methods(http.MethodPost)

	return router
}
