package jira

import (
	"errors"
	"regexp"
)

// Redacted replaces credential-shaped substrings.
const Redacted = "***"

var sanitizers = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	// Authorization header values.
	{regexp.MustCompile(`(?i)\b(Bearer|Basic)\s+[A-Za-z0-9._~+/=-]+`), "$1 " + Redacted},
	// KEY=value and key: value pairs, including prefixed names such as
	// JIRA_API_TOKEN or private_token.
	{regexp.MustCompile(`(?i)([A-Za-z0-9_]*(?:token|password|passwd|pwd|secret|api_?key|auth))(\s*[=:]\s*)[^\s&"'\x60]+`), "${1}${2}" + Redacted},
	// JSON fields.
	{regexp.MustCompile(`(?i)"([A-Za-z0-9_]*(?:token|password|secret))"\s*:\s*"[^"]*"`), `"$1":"` + Redacted + `"`},
	// URL userinfo.
	{regexp.MustCompile(`://[^/\s@]+@`), "://" + Redacted + "@"},
}

// Sanitize redacts tokens, passwords and authorization headers from msg.
// Messages without credential-shaped content are returned unchanged.
func Sanitize(msg string) string {
	for _, s := range sanitizers {
		msg = s.pattern.ReplaceAllString(msg, s.repl)
	}
	return msg
}

type sanitizedError struct {
	msg string
	err error
}

func (e *sanitizedError) Error() string { return e.msg }
func (e *sanitizedError) Unwrap() error { return e.err }

// SanitizeError wraps err so that its message is sanitized while errors.Is
// and errors.As still see the original chain.
func SanitizeError(err error) error {
	if err == nil {
		return nil
	}
	var already *sanitizedError
	if errors.As(err, &already) && already == err {
		return err
	}
	return &sanitizedError{msg: Sanitize(err.Error()), err: err}
}
