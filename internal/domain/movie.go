package domain

// Movie represents the canonical movie entity in the database/service.
type Movie struct {
	ID       int
	Title    string
	Director string
	Genre    string
	Duration int
}

// CreateMovieInput is the payload accepted when registering a new movie.
// The identifier is always assigned by the store.
type CreateMovieInput struct {
	Title    string `json:"title" validate:"notblank,nonul"`
	Director string `json:"director" validate:"notblank,nonul"`
	Genre    string `json:"genre" validate:"notblank,nonul,max=55"`
	Duration int    `json:"duration" validate:"min=60,max=700"`
}

// UpdateMovieInput replaces every business field of an existing movie.
// It is also the document shape that patch operations are applied to.
type UpdateMovieInput struct {
	Title    string `json:"title" validate:"notblank,nonul"`
	Director string `json:"director" validate:"notblank,nonul"`
	Genre    string `json:"genre" validate:"notblank,nonul,max=55"`
	Duration int    `json:"duration" validate:"min=60,max=700"`
}

// MovieOutput is the read-only representation returned to clients.
type MovieOutput struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Director string `json:"director"`
	Genre    string `json:"genre"`
	Duration int    `json:"duration"`
}
