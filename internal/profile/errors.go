package profile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a requested store, file or profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformed indicates the profile store exists but is not usable.
	ErrMalformed = errors.New("malformed profile store")
	// ErrAmbiguous indicates more than one profile matched a hint that
	// requires a unique match.
	ErrAmbiguous = errors.New("ambiguous profile match")
	// ErrInvalidProfile indicates a profile lacks fields its auth kind needs.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrUnresolved indicates no resolution step selected a profile.
	ErrUnresolved = errors.New("could not resolve profile")
)

// AmbiguousError names every profile that matched a single hint.
type AmbiguousError struct {
	// Match describes what matched, e.g. "WEB" or "jira.example.com".
	Match      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s found in profiles: %s. Use --profile to disambiguate",
		e.Match, strings.Join(e.Candidates, ", "))
}

// Unwrap allows errors.Is(err, ErrAmbiguous).
func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }

// FieldError lists the required fields a profile is missing.
type FieldError struct {
	Profile string
	Auth    AuthKind
	Fields  []string
}

func (e *FieldError) Error() string {
	quoted := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		quoted[i] = "'" + f + "'"
	}
	subject := "profile"
	if e.Profile != "" {
		subject = fmt.Sprintf("profile %q", e.Profile)
	}
	return fmt.Sprintf("%s is missing required %s for %s auth",
		subject, strings.Join(quoted, ", "), e.Auth)
}

// Unwrap allows errors.Is(err, ErrInvalidProfile).
func (e *FieldError) Unwrap() error { return ErrInvalidProfile }
