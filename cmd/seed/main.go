// Command seed loads movies from a JSON file and registers them through the API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Clark-Hu/filmes-api/internal/client"
	"github.com/Clark-Hu/filmes-api/internal/domain"
)

func main() {
	var (
		api     = flag.String("api", "http://localhost:8080", "base URL of the filme API")
		data    = flag.String("data", "seed-filmes.json", "path to a JSON array of movies")
		timeout = flag.Duration("timeout", 5*time.Second, "per-request timeout")
		verbose = flag.Bool("v", false, "log every created movie")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read seed data: %v", err)
	}

	var inputs []domain.CreateMovieInput
	if err := json.Unmarshal(file, &inputs); err != nil {
		log.Fatalf("parse seed data: %v", err)
	}

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags)
	c, err := client.NewHTTPClient(*api, *timeout, logger)
	if err != nil {
		log.Fatalf("init client: %v", err)
	}

	created, failed := seed(context.Background(), c, inputs, *timeout, logger, *verbose)
	logger.Printf("created %d movie(s), %d rejected", created, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// maxAttempts bounds how often a throttled create is retried.
const maxAttempts = 5

// wait pauses before retrying a throttled request.
var wait = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func seed(ctx context.Context, c client.Client, inputs []domain.CreateMovieInput, timeout time.Duration, logger *log.Logger, verbose bool) (created, failed int) {
	for _, in := range inputs {
		out, err := create(ctx, c, in, timeout, logger)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				logger.Printf("rejected %q: %v", in.Title, apiErr.Details)
			} else {
				logger.Printf("create %q: %v", in.Title, err)
			}
			failed++
			continue
		}
		if verbose {
			logger.Printf("created %d %q", out.ID, out.Title)
		}
		created++
	}
	return created, failed
}

// create posts one movie, backing off for as long as the server asks while it
// answers 429.
func create(ctx context.Context, c client.Client, in domain.CreateMovieInput, timeout time.Duration, logger *log.Logger) (domain.MovieOutput, error) {
	for attempt := 1; ; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		out, err := c.Create(reqCtx, in)
		cancel()

		var apiErr *client.APIError
		if err == nil || attempt == maxAttempts || !errors.As(err, &apiErr) || !apiErr.Throttled() {
			return out, err
		}
		delay := apiErr.RetryAfter
		if delay <= 0 {
			delay = time.Second
		}
		logger.Printf("throttled on %q, retrying in %s", in.Title, delay)
		if werr := wait(ctx, delay); werr != nil {
			return out, err
		}
	}
}
