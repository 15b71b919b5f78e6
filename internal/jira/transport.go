package jira

import (
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/danielolaszy/jiractl/internal/logging"
)

const (
	// DefaultMaxRetries bounds automatic retries of idempotent requests.
	DefaultMaxRetries = 3
	// MaxRetryAfter caps how long a Retry-After header can stall a request.
	MaxRetryAfter = 30 * time.Second
	// ChallengeHeader is set by the tracker when it demands an interactive
	// login challenge before serving API requests again.
	ChallengeHeader = "X-Authentication-Denied-Reason"
)

var idempotentMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodTrace:   true,
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DefaultBackOff returns the exponential schedule used between retries.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// retryTransport repeats idempotent requests that fail with 429, 502, 503
// or 504. Other statuses and transport errors are returned as is.
type retryTransport struct {
	next       http.RoundTripper
	maxRetries int
	newBackOff func() backoff.BackOff
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !idempotentMethods[req.Method] {
		return t.next.RoundTrip(req)
	}
	rewindable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	b := t.newBackOff()
	b.Reset()
	for attempt := 0; ; attempt++ {
		resp, err := t.next.RoundTrip(req)
		if err != nil || !retryableStatus(resp.StatusCode) || attempt >= t.maxRetries || !rewindable {
			return resp, err
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return resp, nil
		}
		if ra := retryAfter(resp.Header.Get("Retry-After")); ra > wait {
			wait = min(ra, MaxRetryAfter)
		}
		drain(resp)

		logging.Debug("retrying request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		next := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			next.Body = body
		}
		req = next
	}
}

func retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// credentialTransport sends first-hop requests through the authenticating
// transport and redirected requests straight to the base transport, so a
// followed redirect never carries credentials.
type credentialTransport struct {
	authed http.RoundTripper
	base   http.RoundTripper
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Response == nil {
		return t.authed.RoundTrip(req)
	}
	stripped := req.Clone(req.Context())
	stripped.Header.Del("Authorization")
	stripped.Header.Del("Cookie")
	logging.Debug("following redirect without credentials", "host", req.URL.Host, "path", req.URL.Path)
	return t.base.RoundTrip(stripped)
}

var loginURLPattern = regexp.MustCompile(`(?i)login-url=([^\s;,]+)`)

// challengeTransport turns responses carrying ChallengeHeader with a
// CAPTCHA reason into a *ChallengeError. The login URL the server offers is
// only surfaced when it points at the configured host.
type challengeTransport struct {
	next    http.RoundTripper
	baseURL string
}

func (t *challengeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	reason := resp.Header.Get(ChallengeHeader)
	if !strings.Contains(strings.ToUpper(reason), "CAPTCHA") {
		return resp, nil
	}
	drain(resp)
	return nil, &ChallengeError{LoginURL: t.loginURL(reason)}
}

func (t *challengeTransport) loginURL(reason string) string {
	fallback := strings.TrimRight(t.baseURL, "/") + "/login.jsp"
	m := loginURLPattern.FindStringSubmatch(reason)
	if m == nil {
		return fallback
	}
	resolved, err := Resolve(t.baseURL, m[1])
	if err != nil {
		logging.Warn("ignoring challenge login URL on a foreign host", "error", err)
		return fallback
	}
	return resolved
}
