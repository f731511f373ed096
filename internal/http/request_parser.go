package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"moneytracker/internal/core"
)

// maxDeleteBody bounds the body read when looking for an entry id.
const maxDeleteBody = 4 << 10

var errMissingID = errors.New("missing entry id")

// ParseEntryDate reads a YYYY-MM-DD form value. A blank field is a
// validation error like any other malformed date.
func ParseEntryDate(raw string) (core.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.Date{}, fmt.Errorf("%w: date is required", core.ErrInvalidDate)
	}
	return core.ParseDate(raw)
}

// entryIDFromRequest finds the id of the entry a delete request targets.
// htmx sends it form encoded, API clients as {"id": "..."}, and a bodyless
// DELETE carries it in the query string.
func entryIDFromRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDeleteBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var id string
	switch trimmed := strings.TrimSpace(string(body)); {
	case trimmed == "":
	case strings.HasPrefix(trimmed, "{"):
		var payload struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", fmt.Errorf("decode json body: %w", err)
		}
		id = rawIDString(payload.ID)
	default:
		form, err := url.ParseQuery(trimmed)
		if err != nil {
			return "", fmt.Errorf("decode form body: %w", err)
		}
		id = form.Get("id")
	}

	if id = sanitizeInput(id); id == "" {
		id = sanitizeInput(r.URL.Query().Get("id"))
	}
	if id == "" {
		return "", errMissingID
	}
	return id, nil
}

// rawIDString accepts an id sent either as a JSON string or a bare number.
func rawIDString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form, answering 400 when the body is malformed.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
