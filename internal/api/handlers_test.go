package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-rating-service/internal/domain"
	"movie-rating-service/internal/service"
	"movie-rating-service/internal/store"
)

// newTestServer wires the full router over a memory store seeded with
// one director (Nolan) and one genre (Drama), both with id 1.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	memStore := store.NewMemoryMovieStore()
	memStore.AddDirector(&domain.Director{ID: 1, Name: "Nolan"})
	memStore.AddGenre(&domain.Genre{ID: 1, Name: "Drama"})

	svc := service.NewMovieService(memStore, logger)
	handler := NewMovieHandler(svc, logger, validator.New())
	server := httptest.NewServer(NewRouter(handler, logger))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp, nil
	}
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func createInception(t *testing.T, baseURL string) float64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/api/v1/movies", map[string]interface{}{
		"title":        "Inception",
		"director_id":  1,
		"release_year": 2010,
		"cast":         "Leonardo DiCaprio",
		"genres":       []int64{1},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	return data["id"].(float64)
}

func TestCreateMovieEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/movies", map[string]interface{}{
		"title":        "Inception",
		"director_id":  1,
		"release_year": 2010,
		"genres":       []int64{1},
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Inception", data["title"])
	assert.Equal(t, []interface{}{"Drama"}, data["genres"])
	assert.Nil(t, data["average_rating"])
	assert.Equal(t, float64(0), data["ratings_count"])
	director := data["director"].(map[string]interface{})
	assert.Equal(t, "Nolan", director["name"])
}

func TestCreateMovieEndpointInvalidDirector(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/movies", map[string]interface{}{
		"title":        "Ghost Film",
		"director_id":  999,
		"release_year": 2020,
	})

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, float64(422), errBody["code"])
	assert.Equal(t, "Invalid director_id", errBody["message"])
}

func TestCreateMovieEndpointInvalidGenres(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/movies", map[string]interface{}{
		"title":        "Ghost Film",
		"director_id":  1,
		"release_year": 2020,
		"genres":       []int64{1, 999},
	})

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "One or more genre ids are invalid", errBody["message"])
}

func TestGetMovieEndpointNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/movies/999", nil)

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, float64(404), errBody["code"])
	assert.Equal(t, "Movie not found", errBody["message"])
}

func TestListMoviesEndpoint(t *testing.T) {
	server := newTestServer(t)
	createInception(t, server.URL)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/movies?page=1&page_size=10&genre=Drama", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["page"])
	assert.Equal(t, float64(10), data["page_size"])
	assert.Equal(t, float64(1), data["total_items"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Inception", items[0].(map[string]interface{})["title"])
}

func TestListMoviesEndpointInvalidPage(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/movies?page=0", nil)

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestUpdateMovieEndpoint(t *testing.T) {
	server := newTestServer(t)
	movieID := createInception(t, server.URL)

	url := fmt.Sprintf("%s/api/v1/movies/%d", server.URL, int64(movieID))
	resp, body := doJSON(t, http.MethodPut, url, map[string]interface{}{
		"title":        "Inception (Director's Cut)",
		"release_year": 2011,
		"genres":       []int64{1},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Inception (Director's Cut)", data["title"])
	assert.Equal(t, float64(2011), data["release_year"])
}

func TestDeleteMovieEndpoint(t *testing.T) {
	server := newTestServer(t)
	movieID := createInception(t, server.URL)
	url := fmt.Sprintf("%s/api/v1/movies/%d", server.URL, int64(movieID))

	resp, body := doJSON(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, body)

	resp, _ = doJSON(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteMovieEndpointNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/api/v1/movies/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddRatingEndpoint(t *testing.T) {
	server := newTestServer(t)
	movieID := createInception(t, server.URL)
	url := fmt.Sprintf("%s/api/v1/movies/%d/ratings", server.URL, int64(movieID))

	resp, body := doJSON(t, http.MethodPost, url, map[string]interface{}{"score": 8})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["created_at"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, movieID, data["movie_id"])
	assert.Equal(t, float64(8), data["score"])
	assert.NotZero(t, data["rating_id"])
}

func TestAddRatingEndpointOutOfRange(t *testing.T) {
	server := newTestServer(t)
	movieID := createInception(t, server.URL)
	url := fmt.Sprintf("%s/api/v1/movies/%d/ratings", server.URL, int64(movieID))

	for _, score := range []int{0, 11} {
		resp, body := doJSON(t, http.MethodPost, url, map[string]interface{}{"score": score})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "score %d", score)
		errBody := body["error"].(map[string]interface{})
		assert.Equal(t, "Score must be an integer between 1 and 10", errBody["message"])
	}

	getURL := fmt.Sprintf("%s/api/v1/movies/%d", server.URL, int64(movieID))
	_, body := doJSON(t, http.MethodGet, getURL, nil)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["ratings_count"], "rejected scores must not be persisted")
}

func TestAddRatingEndpointMovieNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/movies/999/ratings", map[string]interface{}{"score": 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAverageRatingAcrossRequests(t *testing.T) {
	server := newTestServer(t)
	movieID := createInception(t, server.URL)
	ratingsURL := fmt.Sprintf("%s/api/v1/movies/%d/ratings", server.URL, int64(movieID))

	for _, score := range []int{8, 6} {
		resp, _ := doJSON(t, http.MethodPost, ratingsURL, map[string]interface{}{"score": score})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	getURL := fmt.Sprintf("%s/api/v1/movies/%d", server.URL, int64(movieID))
	_, body := doJSON(t, http.MethodGet, getURL, nil)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["average_rating"])
	assert.Equal(t, float64(2), data["ratings_count"])
}

func TestHealthzEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
