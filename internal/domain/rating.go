package domain

import "time"

// Rating is a single viewer score for a movie. Ratings are owned by their
// movie and are removed with it; they are never updated after creation.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	MovieID   int64     `json:"movie_id" db:"movie_id"`
	Score     int       `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateRatingRequest defines the request body for rating a movie.
type CreateRatingRequest struct {
	Score int `json:"score" validate:"required,gte=1,lte=10"`
}
