// Package http exposes the ledger services as a JSON REST API.
//
// This file holds the helpers shared by handlers for decoding request
// bodies, reading query parameters and resolving the caller.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// decodeJSON reads a single JSON object from the request body into dst.
// An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return core.Validation("Invalid request body")
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. Plain
// dates are taken as UTC midnight.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.Validation("Invalid date '%s', use YYYY-MM-DD", s)
}

// optionalDate parses s when it is non-empty.
func optionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// dateRange reads the inclusive from/to query parameters and returns the
// half-open range [from, to+1d). Missing bounds stay zero.
func dateRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if from, err = parseDate(v); err != nil {
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = parseDate(v); err != nil {
			return
		}
		if to.Equal(truncateDay(to)) {
			to = to.AddDate(0, 0, 1)
		}
	}
	return
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// callerID returns the authenticated user's id. Routes behind the bearer
// middleware always carry one.
func callerID(r *http.Request) string {
	id, _ := auth.IdentityFrom(r.Context())
	return id.UserID
}
