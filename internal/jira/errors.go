package jira

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConnectivity indicates the tracker could not be reached or kept
	// failing with transient statuses.
	ErrConnectivity = errors.New("connectivity error")
	// ErrUnauthorized indicates the tracker rejected the credentials.
	ErrUnauthorized = errors.New("authentication failed")
	// ErrSecurity indicates a request was refused by a network policy.
	ErrSecurity = errors.New("security rejection")
	// ErrUnexpectedResponse indicates a successful status whose body was not
	// the expected API payload, typically an HTML login page.
	ErrUnexpectedResponse = errors.New("unexpected response body")
)

// ChallengeError reports that the tracker demands an interactive challenge
// (for example a CAPTCHA) before it accepts API requests again.
type ChallengeError struct {
	// LoginURL is where the user can resolve the challenge. It always
	// shares the configured tracker host.
	LoginURL string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("CAPTCHA challenge required: log in via a browser at %s, then retry", e.LoginURL)
}

// Unwrap allows errors.Is(err, ErrSecurity).
func (e *ChallengeError) Unwrap() error { return ErrSecurity }

// RejectionError describes a request refused by the SSRF or redirect policy.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "request refused: " + e.Reason
}

// Unwrap allows errors.Is(err, ErrSecurity).
func (e *RejectionError) Unwrap() error { return ErrSecurity }

func reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps authentication statuses to ErrUnauthorized and transient
// statuses to ErrConnectivity.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrConnectivity
	}
	return nil
}
