package httpserver

import (
	"net/url"
	"testing"
)

func FuzzParseListParams(f *testing.F) {
	seeds := []string{
		"skip=0&take=50",
		"skip=abc",
		"take=-1",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		skip, take, err := parseListParams(values)
		if err == nil && values.Get("take") == "" && take != 50 {
			t.Fatalf("default take = %d, want 50 (skip %d)", take, skip)
		}
	})
}
