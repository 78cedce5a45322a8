package store

import (
	"context"
	"errors"

	"movie-rating-service/internal/domain"
)

var (
	ErrMovieNotFound     = errors.New("movie not found")
	ErrDirectorNotFound  = errors.New("director not found")
	ErrInvalidPageParams = errors.New("page and page_size must be positive")
)

// MovieListParams describes the filters and pagination window for List.
// Zero values mean "no filter"; Page and PageSize must both be >= 1.
type MovieListParams struct {
	Page        int
	PageSize    int
	Title       string
	ReleaseYear int
	Genre       string
}

// MovieStore is the persistence boundary for the movie catalog. Methods
// that touch more than one table run inside a single transaction, so a
// failed step never leaves a partial write behind. Write methods do not
// validate referential integrity beyond what the schema enforces; the
// service layer checks director and genre existence before calling them.
type MovieStore interface {
	// List returns one page of movie summaries plus the total number of
	// movies matching the filters before pagination. Filters are
	// conjunctive: Title is a case-insensitive substring match,
	// ReleaseYear is exact, Genre matches movies having a genre with
	// that exact name. Returns ErrInvalidPageParams when Page or
	// PageSize is < 1.
	List(ctx context.Context, params MovieListParams) ([]*domain.MovieSummary, int, error)

	// GetByID returns the full detail view for one movie, with its
	// director, genre names and freshly computed rating aggregates.
	GetByID(ctx context.Context, id int64) (*domain.MovieDetail, error)

	// Create inserts the movie and sets its genre associations to
	// exactly genreIDs, atomically. The movie's ID is populated on
	// return.
	Create(ctx context.Context, movie *domain.Movie, genreIDs []int64) error

	// Update replaces title, release year and cast of the stored movie
	// with the given ID, and replaces its genre set with exactly
	// genreIDs, atomically. The director is left untouched.
	Update(ctx context.Context, movie *domain.Movie, genreIDs []int64) error

	// Delete removes the movie; its ratings and genre associations go
	// with it.
	Delete(ctx context.Context, id int64) error

	// CreateRating inserts a new rating row, populating ID and
	// CreatedAt on the passed struct.
	CreateRating(ctx context.Context, rating *domain.Rating) error

	// GetDirector fetches a director by ID for existence checks.
	GetDirector(ctx context.Context, id int64) (*domain.Director, error)

	// GetGenresByIDs resolves the subset of ids that exist. Callers
	// compare the result length against the requested length to detect
	// unknown ids.
	GetGenresByIDs(ctx context.Context, ids []int64) ([]*domain.Genre, error)
}
