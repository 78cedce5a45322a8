package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"movie-rating-service/internal/domain"
)

// MemoryMovieStore is an in-memory MovieStore used by tests and local
// runs without a database. It mirrors the Postgres implementation's
// semantics, including the schema-enforced referential checks, so the
// service layer behaves identically against either backend.
type MemoryMovieStore struct {
	mu sync.RWMutex

	directors   map[int64]*domain.Director
	genres      map[int64]*domain.Genre
	movies      map[int64]*domain.Movie
	movieGenres map[int64][]int64
	ratings     map[int64]*domain.Rating

	nextDirectorID int64
	nextGenreID    int64
	nextMovieID    int64
	nextRatingID   int64
}

func NewMemoryMovieStore() *MemoryMovieStore {
	return &MemoryMovieStore{
		directors:   make(map[int64]*domain.Director),
		genres:      make(map[int64]*domain.Genre),
		movies:      make(map[int64]*domain.Movie),
		movieGenres: make(map[int64][]int64),
		ratings:     make(map[int64]*domain.Rating),
	}
}

// AddDirector seeds a director. An ID is assigned when the passed value
// has none.
func (m *MemoryMovieStore) AddDirector(d *domain.Director) *domain.Director {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		m.nextDirectorID++
		d.ID = m.nextDirectorID
	} else if d.ID > m.nextDirectorID {
		m.nextDirectorID = d.ID
	}
	directorCopy := *d
	m.directors[d.ID] = &directorCopy
	return d
}

// AddGenre seeds a genre. An ID is assigned when the passed value has
// none.
func (m *MemoryMovieStore) AddGenre(g *domain.Genre) *domain.Genre {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		m.nextGenreID++
		g.ID = m.nextGenreID
	} else if g.ID > m.nextGenreID {
		m.nextGenreID = g.ID
	}
	genreCopy := *g
	m.genres[g.ID] = &genreCopy
	return g
}

func (m *MemoryMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.MovieSummary, int, error) {
	if params.Page < 1 || params.PageSize < 1 {
		return nil, 0, ErrInvalidPageParams
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.Movie
	for _, movie := range m.movies {
		if params.Title != "" && !strings.Contains(strings.ToLower(movie.Title), strings.ToLower(params.Title)) {
			continue
		}
		if params.ReleaseYear != 0 && movie.ReleaseYear != params.ReleaseYear {
			continue
		}
		if params.Genre != "" && !m.movieHasGenreLocked(movie.ID, params.Genre) {
			continue
		}
		matched = append(matched, movie)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	totalCount := len(matched)
	start := (params.Page - 1) * params.PageSize
	if start >= totalCount {
		return []*domain.MovieSummary{}, totalCount, nil
	}
	end := start + params.PageSize
	if end > totalCount {
		end = totalCount
	}

	items := make([]*domain.MovieSummary, 0, end-start)
	for _, movie := range matched[start:end] {
		director := m.directors[movie.DirectorID]
		count, avg := m.aggregatesLocked(movie.ID)
		items = append(items, &domain.MovieSummary{
			ID:            movie.ID,
			Title:         movie.Title,
			ReleaseYear:   movie.ReleaseYear,
			Director:      domain.DirectorRef{ID: director.ID, Name: director.Name},
			Genres:        m.genreNamesLocked(movie.ID),
			AverageRating: avg,
			RatingsCount:  count,
		})
	}
	return items, totalCount, nil
}

func (m *MemoryMovieStore) GetByID(ctx context.Context, id int64) (*domain.MovieDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	director := m.directors[movie.DirectorID]
	count, avg := m.aggregatesLocked(id)
	return &domain.MovieDetail{
		ID:            movie.ID,
		Title:         movie.Title,
		ReleaseYear:   movie.ReleaseYear,
		Director:      *director,
		Genres:        m.genreNamesLocked(id),
		Cast:          movie.Cast,
		AverageRating: avg,
		RatingsCount:  count,
	}, nil
}

func (m *MemoryMovieStore) Create(ctx context.Context, movie *domain.Movie, genreIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.directors[movie.DirectorID]; !ok {
		return ErrDirectorNotFound
	}
	m.nextMovieID++
	movie.ID = m.nextMovieID
	movieCopy := *movie
	m.movies[movie.ID] = &movieCopy
	m.replaceGenresLocked(movie.ID, genreIDs)
	return nil
}

func (m *MemoryMovieStore) Update(ctx context.Context, movie *domain.Movie, genreIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.movies[movie.ID]
	if !ok {
		return ErrMovieNotFound
	}
	stored.Title = movie.Title
	stored.ReleaseYear = movie.ReleaseYear
	stored.Cast = movie.Cast
	m.replaceGenresLocked(movie.ID, genreIDs)
	return nil
}

func (m *MemoryMovieStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(m.movies, id)
	delete(m.movieGenres, id)
	for ratingID, rating := range m.ratings {
		if rating.MovieID == id {
			delete(m.ratings, ratingID)
		}
	}
	return nil
}

func (m *MemoryMovieStore) CreateRating(ctx context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[rating.MovieID]; !ok {
		return ErrMovieNotFound
	}
	m.nextRatingID++
	rating.ID = m.nextRatingID
	rating.CreatedAt = time.Now().UTC()
	ratingCopy := *rating
	m.ratings[rating.ID] = &ratingCopy
	return nil
}

func (m *MemoryMovieStore) GetDirector(ctx context.Context, id int64) (*domain.Director, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	director, ok := m.directors[id]
	if !ok {
		return nil, ErrDirectorNotFound
	}
	directorCopy := *director
	return &directorCopy, nil
}

func (m *MemoryMovieStore) GetGenresByIDs(ctx context.Context, ids []int64) ([]*domain.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	genres := make([]*domain.Genre, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if genre, ok := m.genres[id]; ok {
			genreCopy := *genre
			genres = append(genres, &genreCopy)
		}
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	return genres, nil
}

// replaceGenresLocked sets the association set to exactly the existing
// genres among genreIDs, dropping duplicates. Callers hold the write
// lock.
func (m *MemoryMovieStore) replaceGenresLocked(movieID int64, genreIDs []int64) {
	var attached []int64
	seen := make(map[int64]bool, len(genreIDs))
	for _, genreID := range genreIDs {
		if seen[genreID] {
			continue
		}
		seen[genreID] = true
		if _, ok := m.genres[genreID]; ok {
			attached = append(attached, genreID)
		}
	}
	if attached == nil {
		delete(m.movieGenres, movieID)
		return
	}
	m.movieGenres[movieID] = attached
}

func (m *MemoryMovieStore) movieHasGenreLocked(movieID int64, name string) bool {
	for _, genreID := range m.movieGenres[movieID] {
		if m.genres[genreID].Name == name {
			return true
		}
	}
	return false
}

func (m *MemoryMovieStore) genreNamesLocked(movieID int64) []string {
	names := make([]string, 0, len(m.movieGenres[movieID]))
	for _, genreID := range m.movieGenres[movieID] {
		names = append(names, m.genres[genreID].Name)
	}
	sort.Strings(names)
	return names
}

// aggregatesLocked recomputes the rating count and two-decimal average
// for a movie from the current rating set.
func (m *MemoryMovieStore) aggregatesLocked(movieID int64) (int, *float64) {
	var count int
	var sum int
	for _, rating := range m.ratings {
		if rating.MovieID == movieID {
			count++
			sum += rating.Score
		}
	}
	if count == 0 {
		return 0, nil
	}
	avg := math.Round(float64(sum)/float64(count)*100) / 100
	return count, &avg
}
