package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v. Malformed bodies are reported as
// validation errors so they map to 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidInput):
		return err
	case errors.Is(err, io.EOF):
		return domain.Invalid("body", "request body is required")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.Invalid(typeErr.Field, "must be a %s", typeErr.Type)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Invalid("body", "must not exceed %d bytes", tooLarge.Limit)
	}
	return domain.Invalid("body", "invalid JSON: %v", err)
}

// pathInt64 parses a positive integer path parameter
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer, got %q", raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, domain.Invalid(name, "must be an integer, got %q", raw)
	}
	return n, true, nil
}

// queryInt64 parses an optional 64-bit integer query parameter
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.Invalid(name, "must be an integer, got %q", raw)
	}
	return &n, nil
}

// pageFromQuery reads offset and limit. A missing limit means the default.
func pageFromQuery(r *http.Request) (domain.Page, error) {
	offset, _, err := queryInt(r, "offset")
	if err != nil {
		return domain.Page{}, err
	}
	limit, set, err := queryInt(r, "limit")
	if err != nil {
		return domain.Page{}, err
	}
	if set && limit == 0 {
		return domain.Page{}, domain.Invalid("limit", "must be positive")
	}
	return domain.NewPage(offset, limit)
}
