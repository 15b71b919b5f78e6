// Package netloc normalizes URL hosts so that equivalent spellings of the
// same tracker endpoint compare equal.
package netloc

import (
	"net/url"
	"strings"
)

// Host returns the lowercased host of rawURL with the default port for its
// scheme removed (443 for https, 80 for http). Userinfo is never part of the
// result. It returns "" when rawURL has no host.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return hostOf(u)
}

// Normalize returns rawURL reduced to its normalized origin, "scheme://host".
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := hostOf(u)
	if host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + host
}

// SameHost reports whether a and b name the same normalized, non-empty host.
func SameHost(a, b string) bool {
	ha := Host(a)
	return ha != "" && ha == Host(b)
}

// IsURL reports whether s looks like an absolute http(s) URL.
func IsURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func hostOf(u *url.URL) string {
	host := strings.ToLower(u.Host)
	switch strings.ToLower(u.Scheme) {
	case "https":
		host = strings.TrimSuffix(host, ":443")
	case "http":
		host = strings.TrimSuffix(host, ":80")
	}
	return host
}
