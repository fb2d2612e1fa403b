package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/filmes-api/internal/domain"
	"github.com/Clark-Hu/filmes-api/internal/mapper"
	"github.com/Clark-Hu/filmes-api/internal/movies"
	"github.com/Clark-Hu/filmes-api/internal/repository"
	"github.com/Clark-Hu/filmes-api/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMovieInput
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	s.withSession(w, r, "create movie", func(sess *repository.Session) error {
		movie, err := movies.Create(r.Context(), sess, req)
		if err != nil {
			return err
		}
		w.Header().Set("Location", fmt.Sprintf("/filme/%d", movie.ID))
		s.respondJSON(w, http.StatusCreated, mapper.ToOutput(movie))
		return nil
	})
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	skip, take, err := parseListParams(r.URL.Query())
	if err != nil {
		s.respondServiceError(w, "list movies", err)
		return
	}

	s.withSession(w, r, "list movies", func(sess *repository.Session) error {
		items, err := movies.List(r.Context(), sess, skip, take)
		if err != nil {
			return err
		}
		s.respondJSON(w, http.StatusOK, items)
		return nil
	})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondServiceError(w, "get movie", err)
		return
	}

	s.withSession(w, r, "get movie", func(sess *repository.Session) error {
		movie, err := movies.Get(r.Context(), sess, id)
		if err != nil {
			return err
		}
		s.respondJSON(w, http.StatusOK, movie)
		return nil
	})
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondServiceError(w, "update movie", err)
		return
	}
	var req domain.UpdateMovieInput
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondBodyError(w, r, "update movie", id, func() { s.respondDecodeError(w, err) })
		return
	}

	s.withSession(w, r, "update movie", func(sess *repository.Session) error {
		if err := movies.Update(r.Context(), sess, id, req); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func (s *Server) handlePatchMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondServiceError(w, "patch movie", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondBodyError(w, r, "patch movie", id, func() { s.respondDecodeError(w, err) })
		return
	}
	patch, err := movies.DecodePatch(raw)
	if err != nil {
		s.respondBodyError(w, r, "patch movie", id, func() {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON Patch document")
		})
		return
	}

	s.withSession(w, r, "patch movie", func(sess *repository.Session) error {
		if err := movies.Patch(r.Context(), sess, id, patch); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondServiceError(w, "delete movie", err)
		return
	}

	s.withSession(w, r, "delete movie", func(sess *repository.Session) error {
		if err := movies.Delete(r.Context(), sess, id); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

// withSession opens the request's persistence context, runs fn against it and
// always releases it. Errors returned by fn are translated into responses.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, op string, fn func(sess *repository.Session) error) {
	sess, err := s.repo.Begin(r.Context())
	if err != nil {
		s.respondServiceError(w, op, err)
		return
	}
	defer func() {
		if err := sess.Close(r.Context()); err != nil {
			s.logger.Printf("%s: %v", op, err)
		}
	}()

	if err := fn(sess); err != nil {
		s.respondServiceError(w, op, err)
	}
}

// respondBodyError reports a rejected request body only once the target movie
// is known to exist; a missing movie is always a 404.
func (s *Server) respondBodyError(w http.ResponseWriter, r *http.Request, op string, id int, respond func()) {
	s.withSession(w, r, op, func(sess *repository.Session) error {
		if _, err := movies.Get(r.Context(), sess, id); err != nil {
			return err
		}
		respond()
		return nil
	})
}

func parseListParams(query url.Values) (skip, take int, err error) {
	skip, take = 0, movies.DefaultTake
	verr := &validation.Error{}
	if val := strings.TrimSpace(query.Get("skip")); val != "" {
		parsed, perr := strconv.Atoi(val)
		if perr != nil {
			verr.Add("skip", "skip must be an integer")
		}
		skip = parsed
	}
	if val := strings.TrimSpace(query.Get("take")); val != "" {
		parsed, perr := strconv.Atoi(val)
		if perr != nil {
			verr.Add("take", "take must be an integer")
		}
		take = parsed
	}
	return skip, take, verr.Err()
}

// parseID reads the {id} route parameter. IDs are stored as 32-bit integers,
// so anything wider is rejected here rather than at the database.
func parseID(r *http.Request) (int, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		verr := &validation.Error{}
		verr.Add("id", "id must be an integer")
		return 0, verr
	}
	return int(id), nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "One or more validation errors occurred",
			Details: verr.Fields(),
		})
	case errors.Is(err, movies.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "movie not found")
	default:
		s.logger.Printf("%s error: %v", op, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "One or more validation errors occurred",
			Details: map[string][]string{typeError.Field: {fmt.Sprintf("%s has an invalid type", typeError.Field)}},
		})
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Request body cannot be empty")
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "BAD_REQUEST", fmt.Sprintf("Request body must not exceed %d bytes", maxBytesError.Limit))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "One or more validation errors occurred",
			Details: map[string][]string{field: {fmt.Sprintf("%s is not an accepted field", field)}},
		})
	default:
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Unable to parse request body")
	}
}
