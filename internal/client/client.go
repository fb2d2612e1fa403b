// Package client talks to the /filme API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/filmes-api/internal/domain"
)

// ErrNotFound is returned when the API reports that the movie does not exist.
var ErrNotFound = errors.New("client: movie not found")

// APIError is any non-2xx response other than 404.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string][]string
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

// Throttled reports whether the server rejected the request for exceeding its rate limit.
func (e *APIError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("filme api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("filme api: %d %s: %s %v", e.StatusCode, e.Code, e.Message, e.Details)
}

// PatchOperation is one RFC 6902 edit sent in a PATCH request.
type PatchOperation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Replace builds a replace operation for a top-level field.
func Replace(field string, value interface{}) (PatchOperation, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return PatchOperation{}, fmt.Errorf("encode patch value for %s: %w", field, err)
	}
	return PatchOperation{Op: "replace", Path: "/" + field, Value: raw}, nil
}

// Client defines the operations exposed by the movie API.
type Client interface {
	Create(ctx context.Context, in domain.CreateMovieInput) (domain.MovieOutput, error)
	List(ctx context.Context, skip, take int) ([]domain.MovieOutput, error)
	Get(ctx context.Context, id int) (domain.MovieOutput, error)
	Update(ctx context.Context, id int, in domain.UpdateMovieInput) error
	Patch(ctx context.Context, id int, ops []PatchOperation) error
	Delete(ctx context.Context, id int) error
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse api url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Create registers a movie and returns it with its assigned ID.
func (c *HTTPClient) Create(ctx context.Context, in domain.CreateMovieInput) (domain.MovieOutput, error) {
	var out domain.MovieOutput
	err := c.do(ctx, http.MethodPost, "/filme", nil, "application/json", in, &out)
	return out, err
}

// List fetches one page of movies in insertion order.
func (c *HTTPClient) List(ctx context.Context, skip, take int) ([]domain.MovieOutput, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("take", strconv.Itoa(take))
	out := make([]domain.MovieOutput, 0)
	err := c.do(ctx, http.MethodGet, "/filme", q, "", nil, &out)
	return out, err
}

// Get fetches a single movie, returning ErrNotFound when it does not exist.
func (c *HTTPClient) Get(ctx context.Context, id int) (domain.MovieOutput, error) {
	var out domain.MovieOutput
	err := c.do(ctx, http.MethodGet, moviePath(id), nil, "", nil, &out)
	return out, err
}

// Update replaces every business field of a movie.
func (c *HTTPClient) Update(ctx context.Context, id int, in domain.UpdateMovieInput) error {
	return c.do(ctx, http.MethodPut, moviePath(id), nil, "application/json", in, nil)
}

// Patch sends ops as an application/json-patch+json document.
func (c *HTTPClient) Patch(ctx context.Context, id int, ops []PatchOperation) error {
	return c.do(ctx, http.MethodPatch, moviePath(id), nil, "application/json-patch+json", ops, nil)
}

// Delete removes a movie.
func (c *HTTPClient) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, moviePath(id), nil, "", nil, nil)
}

func moviePath(id int) string {
	return "/filme/" + strconv.Itoa(id)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, contentType string, body, out interface{}) error {
	rel := &url.URL{Path: c.baseURL.Path + path, RawQuery: query.Encode()}
	endpoint := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		apiErr := decodeAPIError(resp.StatusCode, resp.Body)
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		if resp.StatusCode >= 500 {
			c.logger.Printf("client: %s %s returned %d", method, path, resp.StatusCode)
		}
		return apiErr
	}
}

type errorPayload struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

func decodeAPIError(status int, body io.Reader) *APIError {
	apiErr := &APIError{StatusCode: status, Code: "UNKNOWN", Message: http.StatusText(status)}

	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}
	if payload.Code != "" {
		apiErr.Code = payload.Code
	}
	if payload.Message != "" {
		apiErr.Message = payload.Message
	}
	apiErr.Details = payload.Details
	return apiErr
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
