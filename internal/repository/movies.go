package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/filmes-api/internal/domain"
)

const movieColumns = `id, title, director, genre, duration`

// Session is the persistence context of a single request. Writes are only
// visible to other sessions after Commit.
type Session struct {
	tx     pgx.Tx
	closed bool
}

// Add inserts movie and stores the assigned identifier back into it.
func (s *Session) Add(ctx context.Context, movie *domain.Movie) error {
	const query = `
        INSERT INTO movies (title, director, genre, duration)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `
	if err := s.tx.QueryRow(ctx, query, movie.Title, movie.Director, movie.Genre, movie.Duration).Scan(&movie.ID); err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

// Find fetches a movie by its identifier.
func (s *Session) Find(ctx context.Context, id int) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(s.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("find movie %d: %w", id, err)
	}
	return movie, nil
}

// List returns up to take movies after skipping the first skip, in insertion order.
func (s *Session) List(ctx context.Context, skip, take int) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY id OFFSET $1 LIMIT $2`, movieColumns)
	rows, err := s.tx.Query(ctx, query, skip, take)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update writes every business field of movie. The identifier selects the row.
func (s *Session) Update(ctx context.Context, movie domain.Movie) error {
	const query = `
        UPDATE movies
        SET title = $2, director = $3, genre = $4, duration = $5
        WHERE id = $1
    `
	tag, err := s.tx.Exec(ctx, query, movie.ID, movie.Title, movie.Director, movie.Genre, movie.Duration)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", movie.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the movie with the given identifier.
func (s *Session) Remove(ctx context.Context, id int) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Commit makes the session's writes durable and ends it.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	s.closed = true
	return nil
}

// Close rolls back anything not committed. It is safe to call after Commit.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback session: %w", err)
	}
	return nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Director,
		&movie.Genre,
		&movie.Duration,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
