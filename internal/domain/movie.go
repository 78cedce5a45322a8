package domain

// Director represents a movie director. Directors are created by seeding
// or future admin tooling; the public API only reads them.
type Director struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	BirthYear   *int    `json:"birth_year,omitempty" db:"birth_year"`
	Description *string `json:"description,omitempty" db:"description"`
}

// Genre represents a movie genre. Genre names are unique across the catalog.
type Genre struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

// Movie is the persisted movie entity. Derived aggregates and resolved
// associations live on the read models below, never on this struct.
type Movie struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	DirectorID  int64   `json:"director_id" db:"director_id"`
	ReleaseYear int     `json:"release_year" db:"release_year"`
	Cast        *string `json:"cast,omitempty" db:"cast_members"`
}

// DirectorRef is the compact director shape embedded in list items.
type DirectorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieSummary is the read model for list items. RatingsCount and
// AverageRating are recomputed from the rating rows on every read;
// AverageRating is nil when the movie has no ratings.
type MovieSummary struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	ReleaseYear   int         `json:"release_year"`
	Director      DirectorRef `json:"director"`
	Genres        []string    `json:"genres"`
	AverageRating *float64    `json:"average_rating"`
	RatingsCount  int         `json:"ratings_count"`
}

// MovieDetail is the read model for a single movie, with the full
// director record and the cast text.
type MovieDetail struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	ReleaseYear   int      `json:"release_year"`
	Director      Director `json:"director"`
	Genres        []string `json:"genres"`
	Cast          *string  `json:"cast"`
	AverageRating *float64 `json:"average_rating"`
	RatingsCount  int      `json:"ratings_count"`
}

// MovieList is the paginated listing shape returned by the service.
type MovieList struct {
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalItems int             `json:"total_items"`
	Items      []*MovieSummary `json:"items"`
}

// CreateMovieRequest defines the request body for creating a movie.
type CreateMovieRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	DirectorID  int64   `json:"director_id" validate:"required,gt=0"`
	ReleaseYear int     `json:"release_year" validate:"required,gte=1888,lte=2100"`
	Cast        *string `json:"cast,omitempty" validate:"omitempty,max=2000"`
	Genres      []int64 `json:"genres" validate:"omitempty,dive,gt=0"`
}

// UpdateMovieRequest defines the request body for replacing a movie's
// mutable fields. The director is fixed after creation, so it is not
// part of this shape.
type UpdateMovieRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	ReleaseYear int     `json:"release_year" validate:"required,gte=1888,lte=2100"`
	Cast        *string `json:"cast,omitempty" validate:"omitempty,max=2000"`
	Genres      []int64 `json:"genres" validate:"omitempty,dive,gt=0"`
}
