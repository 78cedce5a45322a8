package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"movie-rating-service/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresMovieStore implements MovieStore on top of PostgreSQL.
type PostgresMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresMovieStore wires a MovieStore against an already-connected
// database handle. The handle is injected so tests and startup code own
// the connection lifecycle.
func NewPostgresMovieStore(db *sqlx.DB, logger *slog.Logger) (*PostgresMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresMovieStore{db: db, logger: logger}, nil
}

// movieSummaryRow is the scan target for the list query. Aggregates come
// from correlated subqueries so joined genre rows can never duplicate or
// inflate anything.
type movieSummaryRow struct {
	ID            int64    `db:"id"`
	Title         string   `db:"title"`
	ReleaseYear   int      `db:"release_year"`
	DirectorID    int64    `db:"director_id"`
	DirectorName  string   `db:"director_name"`
	RatingsCount  int      `db:"ratings_count"`
	AverageRating *float64 `db:"average_rating"`
}

type movieGenreRow struct {
	MovieID int64  `db:"movie_id"`
	Name    string `db:"name"`
}

const summaryAggregateColumns = `
       (SELECT COUNT(*) FROM movie_ratings r WHERE r.movie_id = m.id) AS ratings_count,
       (SELECT ROUND(AVG(r.score)::numeric, 2)::float8 FROM movie_ratings r WHERE r.movie_id = m.id) AS average_rating`

// List returns one page of movies matching the filters, with the total
// match count taken before pagination. The genre filter uses an EXISTS
// subquery instead of a join, so a movie with several genres still
// counts once.
func (s *PostgresMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.MovieSummary, int, error) {
	if params.Page < 1 || params.PageSize < 1 {
		return nil, 0, ErrInvalidPageParams
	}

	var conditions []string
	var args []interface{}
	argID := 1

	if params.Title != "" {
		conditions = append(conditions, fmt.Sprintf("m.title ILIKE $%d", argID))
		args = append(args, "%"+params.Title+"%")
		argID++
	}
	if params.ReleaseYear != 0 {
		conditions = append(conditions, fmt.Sprintf("m.release_year = $%d", argID))
		args = append(args, params.ReleaseYear)
		argID++
	}
	if params.Genre != "" {
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
                     WHERE mg.movie_id = m.id AND g.name = $%d)`, argID))
		args = append(args, params.Genre)
		argID++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM movies m` + whereClause

	var totalCount int
	s.logger.DebugContext(ctx, "executing list movies count query", slog.String("query", countQuery))
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "failed to count movies", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	if totalCount == 0 {
		return []*domain.MovieSummary{}, 0, nil
	}

	selectQuery := `SELECT m.id, m.title, m.release_year,
       d.id AS director_id, d.name AS director_name,` + summaryAggregateColumns + `
FROM movies m
JOIN directors d ON d.id = m.director_id` + whereClause +
		fmt.Sprintf(" ORDER BY m.id LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	var rows []movieSummaryRow
	s.logger.DebugContext(ctx, "executing list movies select query", slog.String("query", selectQuery))
	if err := s.db.SelectContext(ctx, &rows, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "failed to list movies", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}

	movieIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		movieIDs = append(movieIDs, row.ID)
	}
	genresByMovie, err := s.genreNamesByMovieIDs(ctx, movieIDs)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*domain.MovieSummary, 0, len(rows))
	for _, row := range rows {
		genres := genresByMovie[row.ID]
		if genres == nil {
			genres = []string{}
		}
		items = append(items, &domain.MovieSummary{
			ID:            row.ID,
			Title:         row.Title,
			ReleaseYear:   row.ReleaseYear,
			Director:      domain.DirectorRef{ID: row.DirectorID, Name: row.DirectorName},
			Genres:        genres,
			AverageRating: row.AverageRating,
			RatingsCount:  row.RatingsCount,
		})
	}
	return items, totalCount, nil
}

// GetByID fetches one movie with its director, genre names and fresh
// rating aggregates.
func (s *PostgresMovieStore) GetByID(ctx context.Context, id int64) (*domain.MovieDetail, error) {
	query := `SELECT m.id, m.title, m.release_year, m.cast_members,
       d.id AS director_id, d.name AS director_name,
       d.birth_year AS director_birth_year, d.description AS director_description,` + summaryAggregateColumns + `
FROM movies m
JOIN directors d ON d.id = m.director_id
WHERE m.id = $1`

	var row struct {
		movieSummaryRow
		Cast                *string `db:"cast_members"`
		DirectorBirthYear   *int    `db:"director_birth_year"`
		DirectorDescription *string `db:"director_description"`
	}

	s.logger.DebugContext(ctx, "executing get movie by id query", slog.Int64("movieID", id))
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get movie by id", slog.Int64("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by id: %w", err)
	}

	genresByMovie, err := s.genreNamesByMovieIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	genres := genresByMovie[id]
	if genres == nil {
		genres = []string{}
	}

	return &domain.MovieDetail{
		ID:          row.ID,
		Title:       row.Title,
		ReleaseYear: row.ReleaseYear,
		Director: domain.Director{
			ID:          row.DirectorID,
			Name:        row.DirectorName,
			BirthYear:   row.DirectorBirthYear,
			Description: row.DirectorDescription,
		},
		Genres:        genres,
		Cast:          row.Cast,
		AverageRating: row.AverageRating,
		RatingsCount:  row.RatingsCount,
	}, nil
}

// Create inserts the movie row and its genre associations in one
// transaction. Referential integrity is assumed to have been checked by
// the caller; a slipped-through foreign key violation still maps to
// ErrDirectorNotFound instead of leaving half a write behind.
func (s *PostgresMovieStore) Create(ctx context.Context, movie *domain.Movie, genreIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insertQuery = `INSERT INTO movies (title, director_id, release_year, cast_members)
              VALUES ($1, $2, $3, $4) RETURNING id`

	s.logger.DebugContext(ctx, "executing create movie query", slog.String("title", movie.Title))
	if err := tx.QueryRowxContext(ctx, insertQuery,
		movie.Title, movie.DirectorID, movie.ReleaseYear, movie.Cast,
	).Scan(&movie.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			s.logger.WarnContext(ctx, "movie insert hit a foreign key violation",
				slog.String("constraint", pqErr.Constraint))
			return ErrDirectorNotFound
		}
		s.logger.ErrorContext(ctx, "failed to create movie", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create movie: %w", err)
	}

	if err := s.replaceGenres(ctx, tx, movie.ID, genreIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie creation: %w", err)
	}
	s.logger.InfoContext(ctx, "movie created", slog.Int64("movieID", movie.ID))
	return nil
}

// Update replaces the movie's mutable columns and its genre set in one
// transaction. The director column is deliberately not part of the
// update statement.
func (s *PostgresMovieStore) Update(ctx context.Context, movie *domain.Movie, genreIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const updateQuery = `UPDATE movies SET title = $1, release_year = $2, cast_members = $3 WHERE id = $4`

	s.logger.DebugContext(ctx, "executing update movie query", slog.Int64("movieID", movie.ID))
	result, err := tx.ExecContext(ctx, updateQuery, movie.Title, movie.ReleaseYear, movie.Cast, movie.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update movie", slog.Int64("movieID", movie.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update movie: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return ErrMovieNotFound
	}

	if err := s.replaceGenres(ctx, tx, movie.ID, genreIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie update: %w", err)
	}
	s.logger.InfoContext(ctx, "movie updated", slog.Int64("movieID", movie.ID))
	return nil
}

// Delete removes the movie row. Ratings and genre associations go with
// it through ON DELETE CASCADE.
func (s *PostgresMovieStore) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM movies WHERE id = $1`

	s.logger.DebugContext(ctx, "executing delete movie query", slog.Int64("movieID", id))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete movie", slog.Int64("movieID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return ErrMovieNotFound
	}
	s.logger.InfoContext(ctx, "movie deleted", slog.Int64("movieID", id))
	return nil
}

// CreateRating inserts a rating row and reads back the assigned id and
// creation timestamp.
func (s *PostgresMovieStore) CreateRating(ctx context.Context, rating *domain.Rating) error {
	const query = `INSERT INTO movie_ratings (movie_id, score) VALUES ($1, $2) RETURNING id, created_at`

	s.logger.DebugContext(ctx, "executing create rating query",
		slog.Int64("movieID", rating.MovieID), slog.Int("score", rating.Score))
	err := s.db.QueryRowxContext(ctx, query, rating.MovieID, rating.Score).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "failed to create rating", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create rating: %w", err)
	}
	s.logger.InfoContext(ctx, "rating created",
		slog.Int64("ratingID", rating.ID), slog.Int64("movieID", rating.MovieID))
	return nil
}

// GetDirector fetches a director by ID.
func (s *PostgresMovieStore) GetDirector(ctx context.Context, id int64) (*domain.Director, error) {
	const query = `SELECT id, name, birth_year, description FROM directors WHERE id = $1`

	var director domain.Director
	if err := s.db.GetContext(ctx, &director, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDirectorNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get director", slog.Int64("directorID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get director: %w", err)
	}
	return &director, nil
}

// GetGenresByIDs resolves the existing genres among ids. Missing ids are
// simply absent from the result.
func (s *PostgresMovieStore) GetGenresByIDs(ctx context.Context, ids []int64) ([]*domain.Genre, error) {
	if len(ids) == 0 {
		return []*domain.Genre{}, nil
	}
	const query = `SELECT id, name, description FROM genres WHERE id = ANY($1) ORDER BY id`

	var genres []*domain.Genre
	if err := s.db.SelectContext(ctx, &genres, query, pq.Array(ids)); err != nil {
		s.logger.ErrorContext(ctx, "failed to get genres by ids", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get genres by ids: %w", err)
	}
	return genres, nil
}

// replaceGenres sets the movie's genre associations to exactly genreIDs
// within the given transaction. A full delete-and-insert keeps the
// stored set identical to the requested one.
func (s *PostgresMovieStore) replaceGenres(ctx context.Context, tx *sqlx.Tx, movieID int64, genreIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = $1`, movieID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear movie genres", slog.Int64("movieID", movieID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to clear movie genres: %w", err)
	}
	if len(genreIDs) == 0 {
		return nil
	}
	const insertQuery = `INSERT INTO movie_genres (movie_id, genre_id)
              SELECT $1, g.id FROM genres g WHERE g.id = ANY($2)
              ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, insertQuery, movieID, pq.Array(genreIDs)); err != nil {
		s.logger.ErrorContext(ctx, "failed to attach movie genres", slog.Int64("movieID", movieID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to attach movie genres: %w", err)
	}
	return nil
}

// genreNamesByMovieIDs loads the genre names for a batch of movies in a
// single query.
func (s *PostgresMovieStore) genreNamesByMovieIDs(ctx context.Context, movieIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(movieIDs))
	if len(movieIDs) == 0 {
		return result, nil
	}
	const query = `SELECT mg.movie_id, g.name
FROM movie_genres mg
JOIN genres g ON g.id = mg.genre_id
WHERE mg.movie_id = ANY($1)
ORDER BY g.name`

	var rows []movieGenreRow
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(movieIDs)); err != nil {
		s.logger.ErrorContext(ctx, "failed to load movie genres", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load movie genres: %w", err)
	}
	for _, row := range rows {
		result[row.MovieID] = append(result[row.MovieID], row.Name)
	}
	return result, nil
}
