package jira

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/danielolaszy/jiractl/internal/netloc"
)

// MaxRedirects is the number of same-host redirects a request may follow.
const MaxRedirects = 1

// ValidateURL checks that target may receive credentials for baseURL.
// Relative references are always allowed. Absolute URLs must use http(s)
// and their normalized host must equal the configured host.
func ValidateURL(baseURL, target string) error {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return reject("unparseable URL")
	}
	if !u.IsAbs() && u.Host == "" {
		return nil
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return reject("unsupported scheme %q", u.Scheme)
	}
	want := netloc.Host(baseURL)
	got := netloc.Host(target)
	if want == "" || got != want {
		return reject("host %q does not match configured tracker host %q", got, want)
	}
	return nil
}

// Resolve returns target as an absolute URL against baseURL after
// ValidateURL accepts it.
func Resolve(baseURL, target string) (string, error) {
	if err := ValidateURL(baseURL, target); err != nil {
		return "", err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return "", reject("unparseable base URL")
	}
	ref, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return "", reject("unparseable URL")
	}
	return base.ResolveReference(ref).String(), nil
}

// redirectPolicy allows a single https redirect to the configured host.
// Credentials are not attached to redirected requests by the credential
// transport.
func redirectPolicy(baseURL string) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > MaxRedirects {
			return reject("too many redirects")
		}
		if !strings.EqualFold(req.URL.Scheme, "https") {
			return reject("redirect to plaintext or unsupported scheme %q", req.URL.Scheme)
		}
		if err := ValidateURL(baseURL, req.URL.String()); err != nil {
			return reject("redirect to host %q refused", req.URL.Host)
		}
		return nil
	}
}
