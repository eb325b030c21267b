package sunlight

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork is returned when the upstream provider is unreachable or timed out.
	ErrNetwork = errors.New("upstream unreachable")
	// ErrUpstream is returned when the upstream answered with a non-success status.
	ErrUpstream = errors.New("upstream returned an error status")
	// ErrMalformedResponse is returned when the upstream body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrValidation is returned when a query or record breaks a data invariant.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when no historical information matches a lookup.
	ErrNotFound = errors.New("historical information not found")
	// ErrDuplicate is returned by stores when a record for the same query already exists.
	ErrDuplicate = errors.New("historical information already exists")
)

// UpstreamError carries the status code of a failed upstream call.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrUpstream, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// Violation names one broken invariant.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invariant a candidate record breaks.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Has reports whether field is among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}
