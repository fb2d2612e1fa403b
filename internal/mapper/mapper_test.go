package mapper

import (
	"testing"

	"github.com/Clark-Hu/filmes-api/internal/domain"
)

func TestToEntityLeavesIDUnset(t *testing.T) {
	got := ToEntity(domain.CreateMovieInput{Title: "Matrix", Director: "Wachowski", Genre: "SciFi", Duration: 136})
	want := domain.Movie{Title: "Matrix", Director: "Wachowski", Genre: "SciFi", Duration: 136}
	if got != want {
		t.Fatalf("ToEntity() = %+v, want %+v", got, want)
	}
}

func TestApplyUpdateKeepsID(t *testing.T) {
	movie := domain.Movie{ID: 7, Title: "Old", Director: "Someone", Genre: "Drama", Duration: 90}
	ApplyUpdate(domain.UpdateMovieInput{Title: "New", Director: "Other", Genre: "Action", Duration: 120}, &movie)

	want := domain.Movie{ID: 7, Title: "New", Director: "Other", Genre: "Action", Duration: 120}
	if movie != want {
		t.Fatalf("ApplyUpdate() = %+v, want %+v", movie, want)
	}
}

func TestRoundTripThroughUpdateInput(t *testing.T) {
	movie := domain.Movie{ID: 3, Title: "Alien", Director: "Scott", Genre: "Horror", Duration: 117}
	copyOf := domain.Movie{ID: 3}
	ApplyUpdate(ToUpdateInput(movie), &copyOf)
	if copyOf != movie {
		t.Fatalf("round trip = %+v, want %+v", copyOf, movie)
	}
}

func TestToOutputs(t *testing.T) {
	if got := ToOutputs(nil); got == nil || len(got) != 0 {
		t.Fatalf("ToOutputs(nil) = %#v, want empty non-nil slice", got)
	}

	movies := []domain.Movie{
		{ID: 1, Title: "A", Director: "X", Genre: "G", Duration: 60},
		{ID: 2, Title: "B", Director: "Y", Genre: "H", Duration: 700},
	}
	got := ToOutputs(movies)
	if len(got) != 2 || got[0].ID != 1 || got[1].Duration != 700 {
		t.Fatalf("ToOutputs() = %+v", got)
	}
}
