package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movie-rating-service/internal/domain"
	"movie-rating-service/internal/store"
)

// ValidationError signals that the request violates a business rule:
// an unknown director, unknown genre ids, or an out-of-range score.
// The HTTP layer maps it to a 422 response carrying Message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MovieService enforces the catalog's business rules on top of a
// MovieStore. It is the only entry point the HTTP layer talks to.
type MovieService struct {
	store  store.MovieStore
	logger *slog.Logger
}

func NewMovieService(s store.MovieStore, logger *slog.Logger) *MovieService {
	return &MovieService{store: s, logger: logger}
}

// List returns one page of the catalog. Filtering and aggregation happen
// in the store; this method only shapes the result.
func (s *MovieService) List(ctx context.Context, params store.MovieListParams) (*domain.MovieList, error) {
	items, totalCount, err := s.store.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return &domain.MovieList{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: totalCount,
		Items:      items,
	}, nil
}

// Get returns the full detail view for one movie.
func (s *MovieService) Get(ctx context.Context, id int64) (*domain.MovieDetail, error) {
	return s.store.GetByID(ctx, id)
}

// Create validates the referenced director and genres, then persists the
// movie and its genre set as one unit. Nothing is written when any
// validation fails.
func (s *MovieService) Create(ctx context.Context, req domain.CreateMovieRequest) (*domain.MovieDetail, error) {
	if err := s.validateDirector(ctx, req.DirectorID); err != nil {
		return nil, err
	}
	if err := s.validateGenres(ctx, req.Genres); err != nil {
		return nil, err
	}

	movie := &domain.Movie{
		Title:       req.Title,
		DirectorID:  req.DirectorID,
		ReleaseYear: req.ReleaseYear,
		Cast:        req.Cast,
	}
	if err := s.store.Create(ctx, movie, req.Genres); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	s.logger.InfoContext(ctx, "movie created", slog.Int64("movieID", movie.ID), slog.String("title", movie.Title))
	return s.store.GetByID(ctx, movie.ID)
}

// Update replaces the movie's title, release year, cast and genre set.
// The director stays fixed after creation.
func (s *MovieService) Update(ctx context.Context, id int64, req domain.UpdateMovieRequest) (*domain.MovieDetail, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validateGenres(ctx, req.Genres); err != nil {
		return nil, err
	}

	movie := &domain.Movie{
		ID:          id,
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		Cast:        req.Cast,
	}
	if err := s.store.Update(ctx, movie, req.Genres); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "movie updated", slog.Int64("movieID", id))
	return s.store.GetByID(ctx, id)
}

// Delete removes the movie along with its ratings and genre
// associations.
func (s *MovieService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "movie deleted", slog.Int64("movieID", id))
	return nil
}

// AddRating records a viewer score for a movie. The score range is
// checked before anything is persisted; a rejected rating leaves no row
// behind.
func (s *MovieService) AddRating(ctx context.Context, movieID int64, score int) (*domain.Rating, error) {
	if _, err := s.store.GetByID(ctx, movieID); err != nil {
		return nil, err
	}
	if score < 1 || score > 10 {
		return nil, &ValidationError{Message: "Score must be an integer between 1 and 10"}
	}

	rating := &domain.Rating{MovieID: movieID, Score: score}
	if err := s.store.CreateRating(ctx, rating); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "rating added",
		slog.Int64("ratingID", rating.ID), slog.Int64("movieID", movieID), slog.Int("score", score))
	return rating, nil
}

func (s *MovieService) validateDirector(ctx context.Context, directorID int64) error {
	_, err := s.store.GetDirector(ctx, directorID)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrDirectorNotFound) {
		return &ValidationError{Message: "Invalid director_id"}
	}
	return err
}

func (s *MovieService) validateGenres(ctx context.Context, genreIDs []int64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	genres, err := s.store.GetGenresByIDs(ctx, genreIDs)
	if err != nil {
		return err
	}
	// Lookups collapse duplicate ids, so repeated ids in the request
	// come back short and fail here too.
	if len(genres) != len(genreIDs) {
		return &ValidationError{Message: "One or more genre ids are invalid"}
	}
	return nil
}
