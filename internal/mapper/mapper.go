// Package mapper copies fields between the movie entity and its transfer shapes.
// Every mapping is explicit; callers validate before mapping.
package mapper

import "github.com/Clark-Hu/filmes-api/internal/domain"

// ToEntity builds a new entity from a create request. The ID is left for the store.
func ToEntity(in domain.CreateMovieInput) domain.Movie {
	return domain.Movie{
		Title:    in.Title,
		Director: in.Director,
		Genre:    in.Genre,
		Duration: in.Duration,
	}
}

// ApplyUpdate overwrites the business fields of target in place.
func ApplyUpdate(in domain.UpdateMovieInput, target *domain.Movie) {
	target.Title = in.Title
	target.Director = in.Director
	target.Genre = in.Genre
	target.Duration = in.Duration
}

// ToUpdateInput materializes the current state of a movie as an update payload.
func ToUpdateInput(m domain.Movie) domain.UpdateMovieInput {
	return domain.UpdateMovieInput{
		Title:    m.Title,
		Director: m.Director,
		Genre:    m.Genre,
		Duration: m.Duration,
	}
}

// ToOutput builds the read representation, ID included.
func ToOutput(m domain.Movie) domain.MovieOutput {
	return domain.MovieOutput{
		ID:       m.ID,
		Title:    m.Title,
		Director: m.Director,
		Genre:    m.Genre,
		Duration: m.Duration,
	}
}

// ToOutputs maps a page of entities, never returning nil.
func ToOutputs(movies []domain.Movie) []domain.MovieOutput {
	out := make([]domain.MovieOutput, 0, len(movies))
	for _, m := range movies {
		out = append(out, ToOutput(m))
	}
	return out
}
