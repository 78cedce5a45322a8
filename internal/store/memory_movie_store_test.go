package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-rating-service/internal/domain"
)

// newSeededMemoryStore builds a store with one director, three genres
// and three movies spanning two release years and two genres.
func newSeededMemoryStore(t *testing.T) *MemoryMovieStore {
	t.Helper()
	m := NewMemoryMovieStore()
	m.AddDirector(&domain.Director{Name: "Christopher Nolan"})
	m.AddGenre(&domain.Genre{Name: "Drama"})
	m.AddGenre(&domain.Genre{Name: "Sci-Fi"})
	m.AddGenre(&domain.Genre{Name: "Comedy"})

	ctx := context.Background()
	require.NoError(t, m.Create(ctx, &domain.Movie{Title: "Inception", DirectorID: 1, ReleaseYear: 2010}, []int64{2}))
	require.NoError(t, m.Create(ctx, &domain.Movie{Title: "Interstellar", DirectorID: 1, ReleaseYear: 2014}, []int64{1, 2}))
	require.NoError(t, m.Create(ctx, &domain.Movie{Title: "Little Women", DirectorID: 1, ReleaseYear: 2019}, []int64{1}))
	return m
}

func TestMemoryListFiltersByTitleSubstring(t *testing.T) {
	m := newSeededMemoryStore(t)

	items, total, err := m.List(context.Background(), MovieListParams{Page: 1, PageSize: 10, Title: "inter"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Interstellar", items[0].Title)
}

func TestMemoryListFiltersByReleaseYear(t *testing.T) {
	m := newSeededMemoryStore(t)

	items, total, err := m.List(context.Background(), MovieListParams{Page: 1, PageSize: 10, ReleaseYear: 2010})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Inception", items[0].Title)
}

func TestMemoryListFiltersByGenreName(t *testing.T) {
	m := newSeededMemoryStore(t)

	_, total, err := m.List(context.Background(), MovieListParams{Page: 1, PageSize: 10, Genre: "Sci-Fi"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = m.List(context.Background(), MovieListParams{Page: 1, PageSize: 10, Genre: "Comedy"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestMemoryListConjunctiveFilters(t *testing.T) {
	m := newSeededMemoryStore(t)

	items, total, err := m.List(context.Background(), MovieListParams{
		Page: 1, PageSize: 10, Genre: "Drama", ReleaseYear: 2014,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Interstellar", items[0].Title)
}

func TestMemoryListTotalCountIgnoresPagination(t *testing.T) {
	m := newSeededMemoryStore(t)

	items, total, err := m.List(context.Background(), MovieListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)

	items, total, err = m.List(context.Background(), MovieListParams{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, items)
}

func TestMemoryListRejectsInvalidPageParams(t *testing.T) {
	m := newSeededMemoryStore(t)

	_, _, err := m.List(context.Background(), MovieListParams{Page: 0, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidPageParams)

	_, _, err = m.List(context.Background(), MovieListParams{Page: 1, PageSize: -1})
	assert.ErrorIs(t, err, ErrInvalidPageParams)
}

func TestMemoryAggregateRounding(t *testing.T) {
	m := newSeededMemoryStore(t)
	ctx := context.Background()

	for _, score := range []int{7, 7, 8} {
		require.NoError(t, m.CreateRating(ctx, &domain.Rating{MovieID: 1, Score: score}))
	}

	detail, err := m.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.RatingsCount)
	require.NotNil(t, detail.AverageRating)
	assert.Equal(t, 7.33, *detail.AverageRating)
}

func TestMemoryCreateDeduplicatesGenreIDs(t *testing.T) {
	m := newSeededMemoryStore(t)
	ctx := context.Background()

	movie := &domain.Movie{Title: "Dupes", DirectorID: 1, ReleaseYear: 2020}
	require.NoError(t, m.Create(ctx, movie, []int64{1, 1, 2}))

	detail, err := m.GetByID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama", "Sci-Fi"}, detail.Genres)
}

func TestMemoryCreateRejectsUnknownDirector(t *testing.T) {
	m := newSeededMemoryStore(t)

	err := m.Create(context.Background(), &domain.Movie{Title: "Nope", DirectorID: 99, ReleaseYear: 2020}, nil)
	assert.ErrorIs(t, err, ErrDirectorNotFound)
}

func TestMemoryCreateRatingRejectsUnknownMovie(t *testing.T) {
	m := newSeededMemoryStore(t)

	err := m.CreateRating(context.Background(), &domain.Rating{MovieID: 99, Score: 5})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMemoryDeleteCascades(t *testing.T) {
	m := newSeededMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, m.CreateRating(ctx, &domain.Rating{MovieID: 1, Score: 9}))
	require.NoError(t, m.Delete(ctx, 1))

	_, ok := m.movies[1]
	assert.False(t, ok)
	_, ok = m.movieGenres[1]
	assert.False(t, ok, "no genre association rows may remain for the deleted movie")
	for _, rating := range m.ratings {
		assert.NotEqual(t, int64(1), rating.MovieID, "no rating rows may remain for the deleted movie")
	}
}

func TestMemoryGetGenresByIDsResolvesExistingSubset(t *testing.T) {
	m := newSeededMemoryStore(t)

	genres, err := m.GetGenresByIDs(context.Background(), []int64{1, 2, 999})
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Drama", genres[0].Name)
	assert.Equal(t, "Sci-Fi", genres[1].Name)
}

func TestMemoryGetDirector(t *testing.T) {
	m := newSeededMemoryStore(t)

	director, err := m.GetDirector(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Christopher Nolan", director.Name)

	_, err = m.GetDirector(context.Background(), 99)
	assert.ErrorIs(t, err, ErrDirectorNotFound)
}
