package movies

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Clark-Hu/filmes-api/internal/domain"
	"github.com/Clark-Hu/filmes-api/internal/repository"
	"github.com/Clark-Hu/filmes-api/internal/validation"
)

// memSession keeps committed rows in a shared table and stages writes until Commit.
type memSession struct {
	table   *memTable
	staged  []domain.Movie
	removed []int
	commits int
	failErr error
}

type memTable struct {
	nextID int
	rows   []domain.Movie
}

func newMemTable() *memTable { return &memTable{nextID: 1} }

func (t *memTable) session() *memSession { return &memSession{table: t} }

func (s *memSession) Add(ctx context.Context, movie *domain.Movie) error {
	if s.failErr != nil {
		return s.failErr
	}
	movie.ID = s.table.nextID
	s.table.nextID++
	s.staged = append(s.staged, *movie)
	return nil
}

func (s *memSession) Find(ctx context.Context, id int) (domain.Movie, error) {
	if s.failErr != nil {
		return domain.Movie{}, s.failErr
	}
	for _, m := range s.table.rows {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Movie{}, repository.ErrNotFound
}

func (s *memSession) List(ctx context.Context, skip, take int) ([]domain.Movie, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	out := make([]domain.Movie, 0)
	for i := skip; i < len(s.table.rows) && i < skip+take; i++ {
		out = append(out, s.table.rows[i])
	}
	return out, nil
}

func (s *memSession) Update(ctx context.Context, movie domain.Movie) error {
	if _, err := s.Find(ctx, movie.ID); err != nil {
		return err
	}
	s.staged = append(s.staged, movie)
	return nil
}

func (s *memSession) Remove(ctx context.Context, id int) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	s.removed = append(s.removed, id)
	return nil
}

func (s *memSession) Commit(ctx context.Context) error {
	for _, m := range s.staged {
		replaced := false
		for i := range s.table.rows {
			if s.table.rows[i].ID == m.ID {
				s.table.rows[i] = m
				replaced = true
			}
		}
		if !replaced {
			s.table.rows = append(s.table.rows, m)
		}
	}
	for _, id := range s.removed {
		for i := range s.table.rows {
			if s.table.rows[i].ID == id {
				s.table.rows = append(s.table.rows[:i], s.table.rows[i+1:]...)
				break
			}
		}
	}
	s.staged, s.removed = nil, nil
	s.commits++
	return nil
}

func matrix() domain.CreateMovieInput {
	return domain.CreateMovieInput{Title: "Matrix", Director: "Wachowski", Genre: "SciFi", Duration: 136}
}

func mustCreate(t *testing.T, table *memTable, in domain.CreateMovieInput) domain.Movie {
	t.Helper()
	movie, err := Create(context.Background(), table.session(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return movie
}

func requireValidation(t *testing.T, err error, field string) *validation.Error {
	t.Helper()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *validation.Error", err)
	}
	if _, ok := verr.Fields()[field]; !ok {
		t.Fatalf("problems %v missing field %q", verr.Fields(), field)
	}
	return verr
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	table := newMemTable()

	created := mustCreate(t, table, matrix())
	if created.ID == 0 {
		t.Fatalf("Create did not assign an id")
	}

	got, err := Get(ctx, table.session(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := domain.MovieOutput{ID: created.ID, Title: "Matrix", Director: "Wachowski", Genre: "SciFi", Duration: 136}
	if got != want {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *domain.CreateMovieInput)
		field  string
	}{
		{"duration below range", func(in *domain.CreateMovieInput) { in.Duration = 59 }, "duration"},
		{"duration above range", func(in *domain.CreateMovieInput) { in.Duration = 701 }, "duration"},
		{"genre too long", func(in *domain.CreateMovieInput) { in.Genre = strings.Repeat("x", 56) }, "genre"},
		{"missing title", func(in *domain.CreateMovieInput) { in.Title = "" }, "title"},
		{"missing director", func(in *domain.CreateMovieInput) { in.Director = "" }, "director"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newMemTable()
			sess := table.session()
			in := matrix()
			tt.mutate(&in)

			_, err := Create(context.Background(), sess, in)
			requireValidation(t, err, tt.field)
			if len(table.rows) != 0 || sess.commits != 0 {
				t.Fatalf("invalid input persisted: rows=%d commits=%d", len(table.rows), sess.commits)
			}
		})
	}
}

func TestCreatePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("store unavailable")
	sess := newMemTable().session()
	sess.failErr = boom

	if _, err := Create(context.Background(), sess, matrix()); !errors.Is(err, boom) {
		t.Fatalf("Create error = %v, want %v", err, boom)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	table := newMemTable()

	empty, err := List(ctx, table.session(), 0, DefaultTake)
	if err != nil {
		t.Fatalf("List empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("List on empty store = %#v, want empty slice", empty)
	}

	for _, title := range []string{"A", "B", "C"} {
		in := matrix()
		in.Title = title
		mustCreate(t, table, in)
	}

	page, err := List(ctx, table.session(), 1, 1)
	if err != nil {
		t.Fatalf("List(1,1): %v", err)
	}
	if len(page) != 1 || page[0].Title != "B" {
		t.Fatalf("List(1,1) = %+v, want [B]", page)
	}

	page, err = List(ctx, table.session(), 5, 10)
	if err != nil || len(page) != 0 {
		t.Fatalf("List past end = %+v, %v", page, err)
	}

	page, err = List(ctx, table.session(), 0, 0)
	if err != nil || len(page) != 0 {
		t.Fatalf("List take=0 = %+v, %v", page, err)
	}

	_, err = List(ctx, table.session(), -1, -1)
	verr := requireValidation(t, err, "skip")
	if _, ok := verr.Fields()["take"]; !ok {
		t.Fatalf("negative take not reported: %v", verr.Fields())
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	table := newMemTable()
	created := mustCreate(t, table, matrix())

	in := domain.UpdateMovieInput{Title: "Matrix Reloaded", Director: "Wachowski", Genre: "SciFi", Duration: 138}
	if err := Update(ctx, table.session(), created.ID, in); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := Get(ctx, table.session(), created.ID)
	if got.Title != "Matrix Reloaded" || got.Duration != 138 || got.ID != created.ID {
		t.Fatalf("after Update = %+v", got)
	}

	in.Duration = 5
	err := Update(ctx, table.session(), created.ID, in)
	requireValidation(t, err, "duration")
	got, _ = Get(ctx, table.session(), created.ID)
	if got.Duration != 138 {
		t.Fatalf("invalid update changed record: %+v", got)
	}
}

func TestNotFoundPrecedesValidation(t *testing.T) {
	ctx := context.Background()
	table := newMemTable()
	invalid := domain.UpdateMovieInput{}

	if err := Update(ctx, table.session(), 42, invalid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update error = %v, want ErrNotFound", err)
	}
	patch, err := DecodePatch([]byte(`[{"op":"replace","path":"/duration","value":1}]`))
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}
	if err := Patch(ctx, table.session(), 42, patch); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Patch error = %v, want ErrNotFound", err)
	}
	if err := Delete(ctx, table.session(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete error = %v, want ErrNotFound", err)
	}
	if _, err := Get(ctx, table.session(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestPatchDurationOnly(t *testing.T) {
	ctx := context.Background()
	table := newMemTable()
	created := mustCreate(t, table, matrix())

	patch, err := DecodePatch([]byte(`[{"op":"replace","path":"/duration","value":150}]`))
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}
	if err := Patch(ctx, table.session(), created.ID, patch); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	got, _ := Get(ctx, table.session(), created.ID)
	want := domain.MovieOutput{ID: created.ID, Title: "Matrix", Director: "Wachowski", Genre: "SciFi", Duration: 150}
	if got != want {
		t.Fatalf("after Patch = %+v, want %+v", got, want)
	}
}

func TestPatchProblems(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"out of range", `[{"op":"replace","path":"/duration","value":800}]`, "duration"},
		{"wrong type", `[{"op":"replace","path":"/duration","value":"long"}]`, "duration"},
		{"removed title", `[{"op":"remove","path":"/title"}]`, "title"},
		{"unknown field", `[{"op":"add","path":"/rating","value":5}]`, "rating"},
		{"id is not patchable", `[{"op":"add","path":"/id","value":99}]`, "id"},
		{"missing path", `[{"op":"replace","path":"/nope","value":1}]`, "nope"},
		{"failed test op", `[{"op":"test","path":"/title","value":"Other"}]`, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			table := newMemTable()
			created := mustCreate(t, table, matrix())

			patch, err := DecodePatch([]byte(tt.doc))
			if err != nil {
				t.Fatalf("DecodePatch: %v", err)
			}
			err = Patch(ctx, table.session(), created.ID, patch)
			requireValidation(t, err, tt.field)

			got, _ := Get(ctx, table.session(), created.ID)
			if got.Title != "Matrix" || got.Duration != 136 {
				t.Fatalf("rejected patch changed record: %+v", got)
			}
		})
	}
}

func TestDecodePatchMalformed(t *testing.T) {
	if _, err := DecodePatch([]byte(`{"op":"replace"}`)); err == nil {
		t.Fatalf("expected error for non-array patch document")
	}
}

func TestDeleteThenGet(t *testing.T) {
	ctx := context.Background()
	table := newMemTable()
	created := mustCreate(t, table, matrix())

	if err := Delete(ctx, table.session(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(ctx, table.session(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete error = %v, want ErrNotFound", err)
	}
}
