// Package movies implements the lifecycle of the movie resource: create, list,
// fetch, full and partial update, delete. Every operation runs against the
// request's Session and commits it only on success.
package movies

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/filmes-api/internal/domain"
	"github.com/Clark-Hu/filmes-api/internal/mapper"
	"github.com/Clark-Hu/filmes-api/internal/repository"
	"github.com/Clark-Hu/filmes-api/internal/validation"
)

// DefaultTake is the page size used when the caller does not ask for one.
const DefaultTake = 50

// ErrNotFound is returned when the referenced movie does not exist.
var ErrNotFound = errors.New("movie not found")

// Session is the persistence context a single request operates on.
// Find, Update and Remove report a missing row with repository.ErrNotFound.
type Session interface {
	Add(ctx context.Context, movie *domain.Movie) error
	Find(ctx context.Context, id int) (domain.Movie, error)
	List(ctx context.Context, skip, take int) ([]domain.Movie, error)
	Update(ctx context.Context, movie domain.Movie) error
	Remove(ctx context.Context, id int) error
	Commit(ctx context.Context) error
}

// Create validates in, stores a new movie and returns it with its assigned ID.
func Create(ctx context.Context, sess Session, in domain.CreateMovieInput) (domain.Movie, error) {
	if err := validation.Struct(in); err != nil {
		return domain.Movie{}, err
	}

	movie := mapper.ToEntity(in)
	if err := sess.Add(ctx, &movie); err != nil {
		return domain.Movie{}, err
	}
	if err := sess.Commit(ctx); err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

// List returns the movies in [skip, skip+take) in insertion order.
func List(ctx context.Context, sess Session, skip, take int) ([]domain.MovieOutput, error) {
	verr := &validation.Error{}
	if skip < 0 {
		verr.Add("skip", "skip must not be negative")
	}
	if take < 0 {
		verr.Add("take", "take must not be negative")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if take == 0 {
		return []domain.MovieOutput{}, nil
	}

	items, err := sess.List(ctx, skip, take)
	if err != nil {
		return nil, err
	}
	return mapper.ToOutputs(items), nil
}

// Get returns the read representation of the movie with the given ID.
func Get(ctx context.Context, sess Session, id int) (domain.MovieOutput, error) {
	movie, err := find(ctx, sess, id)
	if err != nil {
		return domain.MovieOutput{}, err
	}
	return mapper.ToOutput(movie), nil
}

// Update replaces every business field of the movie. A missing movie is
// reported before any validation problem.
func Update(ctx context.Context, sess Session, id int, in domain.UpdateMovieInput) error {
	movie, err := find(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	return save(ctx, sess, in, movie)
}

// Patch applies the edit operations to the movie's current state, re-validates
// the result and stores it. Operations that cannot be applied are reported as
// validation problems alongside any constraint violations.
func Patch(ctx context.Context, sess Session, id int, patch PatchDocument) error {
	movie, err := find(ctx, sess, id)
	if err != nil {
		return err
	}

	patched, problems := applyPatch(mapper.ToUpdateInput(movie), patch)
	if err := validation.Struct(patched); err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return err
		}
		problems.Merge(verr)
	}
	if err := problems.Err(); err != nil {
		return err
	}
	return save(ctx, sess, patched, movie)
}

// Delete removes the movie with the given ID.
func Delete(ctx context.Context, sess Session, id int) error {
	if _, err := find(ctx, sess, id); err != nil {
		return err
	}
	if err := sess.Remove(ctx, id); err != nil {
		return notFound(err)
	}
	return sess.Commit(ctx)
}

func find(ctx context.Context, sess Session, id int) (domain.Movie, error) {
	movie, err := sess.Find(ctx, id)
	if err != nil {
		return domain.Movie{}, notFound(err)
	}
	return movie, nil
}

func save(ctx context.Context, sess Session, in domain.UpdateMovieInput, movie domain.Movie) error {
	mapper.ApplyUpdate(in, &movie)
	if err := sess.Update(ctx, movie); err != nil {
		return notFound(err)
	}
	return sess.Commit(ctx)
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
