package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"movie-rating-service/internal/domain"
	"movie-rating-service/internal/service"
	"movie-rating-service/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// MovieHandler holds the dependencies for the HTTP handlers.
type MovieHandler struct {
	service   *service.MovieService
	logger    *slog.Logger
	validator *validator.Validate
}

func NewMovieHandler(s *service.MovieService, l *slog.Logger, v *validator.Validate) *MovieHandler {
	return &MovieHandler{
		service:   s,
		logger:    l,
		validator: v,
	}
}

// successEnvelope is the wire shape for all successful responses.
type successEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Status string    `json:"status"`
	Error  errorBody `json:"error"`
}

func (h *MovieHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to encode JSON response",
				slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *MovieHandler) respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	h.respondJSON(w, r, status, successEnvelope{Status: "success", Data: data})
}

func (h *MovieHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, errorEnvelope{Status: "error", Error: errorBody{Code: status, Message: message}})
}

// respondServiceError maps service and store errors to wire responses.
// Unexpected failures come out as a bare 500 with no internal detail.
func (h *MovieHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, store.ErrMovieNotFound):
		h.respondError(w, r, http.StatusNotFound, "Movie not found")
	case errors.As(err, &validationErr):
		h.respondError(w, r, http.StatusUnprocessableEntity, validationErr.Message)
	case errors.Is(err, store.ErrInvalidPageParams):
		h.respondError(w, r, http.StatusUnprocessableEntity, "page and page_size must be positive integers")
	default:
		h.logger.ErrorContext(r.Context(), "unexpected error handling request",
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func movieIDFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["movieId"], 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// ListMovies returns a filtered, paginated slice of the catalog.
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	params := store.MovieListParams{
		Page:     1,
		PageSize: defaultPageSize,
		Title:    query.Get("title"),
		Genre:    query.Get("genre"),
	}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, http.StatusUnprocessableEntity, "page must be an integer")
			return
		}
		params.Page = page
	}
	rawSize := query.Get("page_size")
	if rawSize == "" {
		rawSize = query.Get("pageSize")
	}
	if rawSize != "" {
		pageSize, err := strconv.Atoi(rawSize)
		if err != nil {
			h.respondError(w, r, http.StatusUnprocessableEntity, "page_size must be an integer")
			return
		}
		params.PageSize = pageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	rawYear := query.Get("release_year")
	if rawYear == "" {
		rawYear = query.Get("releaseYear")
	}
	if rawYear != "" {
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			h.respondError(w, r, http.StatusUnprocessableEntity, "release_year must be an integer")
			return
		}
		params.ReleaseYear = year
	}

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondSuccess(w, r, http.StatusOK, result)
}

// GetMovie returns the full detail for one movie.
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDFromRequest(r)
	if !ok {
		h.respondError(w, r, http.StatusNotFound, "Movie not found")
		return
	}
	movie, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondSuccess(w, r, http.StatusOK, movie)
}

// CreateMovie creates a movie together with its genre associations.
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode create movie payload", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondError(w, r, http.StatusUnprocessableEntity, "Validation failed: "+err.Error())
		return
	}

	movie, err := h.service.Create(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondSuccess(w, r, http.StatusCreated, movie)
}

// UpdateMovie replaces a movie's title, release year, cast and genre set.
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := movieIDFromRequest(r)
	if !ok {
		h.respondError(w, r, http.StatusNotFound, "Movie not found")
		return
	}

	var req domain.UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode update movie payload", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondError(w, r, http.StatusUnprocessableEntity, "Validation failed: "+err.Error())
		return
	}

	movie, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondSuccess(w, r, http.StatusOK, movie)
}

// DeleteMovie removes a movie and everything it owns.
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDFromRequest(r)
	if !ok {
		h.respondError(w, r, http.StatusNotFound, "Movie not found")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ratingResponse is the wire shape for a created rating; the creation
// timestamp sits beside the data block.
type ratingResponse struct {
	Status    string     `json:"status"`
	Data      ratingData `json:"data"`
	CreatedAt string     `json:"created_at"`
}

type ratingData struct {
	RatingID int64 `json:"rating_id"`
	MovieID  int64 `json:"movie_id"`
	Score    int   `json:"score"`
}

// AddRating records a viewer score for a movie.
func (h *MovieHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := movieIDFromRequest(r)
	if !ok {
		h.respondError(w, r, http.StatusNotFound, "Movie not found")
		return
	}

	var req domain.CreateRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode rating payload", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondError(w, r, http.StatusUnprocessableEntity, "Score must be an integer between 1 and 10")
		return
	}

	rating, err := h.service.AddRating(ctx, id, req.Score)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, ratingResponse{
		Status:    "success",
		Data:      ratingData{RatingID: rating.ID, MovieID: rating.MovieID, Score: rating.Score},
		CreatedAt: rating.CreatedAt.Format(time.RFC3339),
	})
}

// Healthz reports liveness.
func (h *MovieHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
