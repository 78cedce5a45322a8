// Command seed loads a small sample catalog for local development:
// two directors, three genres, two movies and one rating each.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"movie-rating-service/internal/config"
	"movie-rating-service/internal/domain"
	"movie-rating-service/internal/store"
)

type sampleMovie struct {
	title       string
	directorIdx int
	releaseYear int
	cast        string
	genreIdx    int
}

var (
	sampleDirectors = []domain.Director{
		{Name: "Christopher Nolan", BirthYear: intPtr(1970)},
		{Name: "Greta Gerwig", BirthYear: intPtr(1983)},
	}
	sampleGenres = []domain.Genre{
		{Name: "Drama"},
		{Name: "Sci-Fi"},
		{Name: "Comedy"},
	}
	sampleMovies = []sampleMovie{
		{title: "Inception", directorIdx: 0, releaseYear: 2010, cast: "Leonardo DiCaprio", genreIdx: 0},
		{title: "Little Women", directorIdx: 1, releaseYear: 2019, cast: "Saoirse Ronan", genreIdx: 0},
	}
)

func intPtr(v int) *int { return &v }

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		logger.Error("failed to apply database schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	movieStore, err := store.NewPostgresMovieStore(db, logger)
	if err != nil {
		logger.Error("failed to initialize movie store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	directorIDs := make([]int64, len(sampleDirectors))
	for i, d := range sampleDirectors {
		err := db.GetContext(ctx, &directorIDs[i],
			`SELECT id FROM directors WHERE name = $1`, d.Name)
		if errors.Is(err, sql.ErrNoRows) {
			err = db.QueryRowxContext(ctx,
				`INSERT INTO directors (name, birth_year) VALUES ($1, $2) RETURNING id`,
				d.Name, d.BirthYear,
			).Scan(&directorIDs[i])
		}
		if err != nil {
			logger.Error("failed to seed director", slog.String("name", d.Name), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	genreIDs := make([]int64, len(sampleGenres))
	for i, g := range sampleGenres {
		if err := db.QueryRowxContext(ctx,
			`INSERT INTO genres (name) VALUES ($1)
             ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
             RETURNING id`,
			g.Name,
		).Scan(&genreIDs[i]); err != nil {
			logger.Error("failed to seed genre", slog.String("name", g.Name), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	for _, sm := range sampleMovies {
		var exists bool
		if err := db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM movies WHERE title = $1)`, sm.title); err != nil {
			logger.Error("failed to check for seeded movie", slog.String("title", sm.title), slog.String("error", err.Error()))
			os.Exit(1)
		}
		if exists {
			logger.Info("movie already seeded, skipping", slog.String("title", sm.title))
			continue
		}
		cast := sm.cast
		movie := &domain.Movie{
			Title:       sm.title,
			DirectorID:  directorIDs[sm.directorIdx],
			ReleaseYear: sm.releaseYear,
			Cast:        &cast,
		}
		if err := movieStore.Create(ctx, movie, []int64{genreIDs[sm.genreIdx]}); err != nil {
			logger.Error("failed to seed movie", slog.String("title", sm.title), slog.String("error", err.Error()))
			os.Exit(1)
		}
		rating := &domain.Rating{MovieID: movie.ID, Score: 8}
		if err := movieStore.CreateRating(ctx, rating); err != nil {
			logger.Error("failed to seed rating", slog.String("title", sm.title), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("seeded database successfully",
		slog.Int("directors", len(sampleDirectors)),
		slog.Int("genres", len(sampleGenres)),
		slog.Int("movies", len(sampleMovies)))
}
