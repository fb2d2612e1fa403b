package movies

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Clark-Hu/filmes-api/internal/domain"
	"github.com/Clark-Hu/filmes-api/internal/validation"
)

// PatchDocument is an ordered list of RFC 6902 operations addressed at the
// fields of domain.UpdateMovieInput, e.g. [{"op":"replace","path":"/duration","value":140}].
type PatchDocument = jsonpatch.Patch

// DecodePatch parses a JSON Patch document.
func DecodePatch(raw []byte) (PatchDocument, error) {
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("decode patch document: %w", err)
	}
	return patch, nil
}

type patchField struct {
	kind   string
	target func(in *domain.UpdateMovieInput) any
}

var patchFields = map[string]patchField{
	"title":    {"a string", func(in *domain.UpdateMovieInput) any { return &in.Title }},
	"director": {"a string", func(in *domain.UpdateMovieInput) any { return &in.Director }},
	"genre":    {"a string", func(in *domain.UpdateMovieInput) any { return &in.Genre }},
	"duration": {"an integer", func(in *domain.UpdateMovieInput) any { return &in.Duration }},
}

// applyPatch runs the operations in order against in. It stops at the first
// operation that fails; the returned problems are never nil.
func applyPatch(in domain.UpdateMovieInput, patch PatchDocument) (domain.UpdateMovieInput, *validation.Error) {
	problems := &validation.Error{}

	doc, err := json.Marshal(in)
	if err != nil {
		problems.Add("patch", fmt.Sprintf("cannot encode current state: %v", err))
		return in, problems
	}

	for _, op := range patch {
		next, err := jsonpatch.Patch{op}.Apply(doc)
		if err != nil {
			problems.Add(operationField(op), fmt.Sprintf("cannot apply %q operation: %v", op.Kind(), err))
			break
		}
		doc = next
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		problems.Add("patch", "patched document must remain an object")
		return in, problems
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out domain.UpdateMovieInput
	for _, key := range keys {
		field, ok := patchFields[key]
		if !ok {
			problems.Add(key, fmt.Sprintf("%s is not a patchable field", key))
			continue
		}
		if err := json.Unmarshal(fields[key], field.target(&out)); err != nil {
			problems.Add(key, fmt.Sprintf("%s must be %s", key, field.kind))
		}
	}
	return out, problems
}

// operationField names the top-level field an operation addresses.
func operationField(op jsonpatch.Operation) string {
	path, err := op.Path()
	if err != nil || path == "" || path == "/" {
		return "patch"
	}
	segment := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}
