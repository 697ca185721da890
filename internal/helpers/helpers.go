package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\- ]+`) // space is kept and handled separately
	slugSpaces       = regexp.MustCompile(`[ ]+`)
	slugHyphens      = regexp.MustCompile(`-{2,}`)
	validOrigin      = regexp.MustCompile(`^(https?):\/\/([a-zA-Z0-9_\-\.]+)(:\d+)?$`)
)

// GenerateSlug generates a URL-friendly slug from a title, e.g "Penerimaan Santri Baru 2025" -> "penerimaan-santri-baru-2025"
func GenerateSlug(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("no input string supplied to GenerateSlug")
	}

	normalized := norm.NFD.String(input)

	withoutDiacritics, _, err := transform.String(runes.Remove(runes.In(unicode.Mn)), normalized)
	if err != nil {
		return "", fmt.Errorf("error creating slug: %v", err)
	}

	lowerCase := strings.ToLower(withoutDiacritics)
	hyphenated := slugInvalidChars.ReplaceAllString(lowerCase, "-")
	hyphenated = slugSpaces.ReplaceAllString(hyphenated, "-")
	hyphenated = slugHyphens.ReplaceAllString(hyphenated, "-")

	trimmed := strings.Trim(hyphenated, "-")
	if trimmed == "" {
		return "", fmt.Errorf("%q does not contain any slug characters", input)
	}
	return trimmed, nil
}

func GetScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}

	// Check common reverse proxy headers
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// check for valid origins, e.g http://localhost:8080 , https://example.com etc
func IsValidOrigin(urlStr string) bool {
	return validOrigin.MatchString(urlStr)
}

// DecodeJSON decodes a json request body into v. Unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("could not decode request body: %w", err)
	}
	return nil
}

// IDParam reads a positive integer url parameter
func IDParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

// IntQuery reads an integer query parameter, returning def when it is absent or malformed
func IntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
