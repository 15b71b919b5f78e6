package jira

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	base := "https://jira.example.com"

	testCases := []struct {
		name    string
		target  string
		allowed bool
	}{
		{name: "Relative path", target: "/rest/x", allowed: true},
		{name: "Relative without slash", target: "secure/attachment/1/a.txt", allowed: true},
		{name: "Same host", target: "https://jira.example.com/secure/attachment/1", allowed: true},
		{name: "Explicit default port", target: "https://jira.example.com:443/x", allowed: true},
		{name: "Uppercase host", target: "https://JIRA.EXAMPLE.COM/x", allowed: true},
		{name: "Foreign host", target: "https://evil.com/x", allowed: false},
		{name: "Suffix lookalike", target: "https://jira.example.com.evil.com/x", allowed: false},
		{name: "Userinfo trick", target: "https://jira.example.com@evil.com/x", allowed: false},
		{name: "Port mismatch", target: "https://jira.example.com:8443/x", allowed: false},
		{name: "Protocol relative foreign", target: "//evil.com/x", allowed: false},
		{name: "Unsupported scheme", target: "file:///etc/passwd", allowed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateURL(base, tc.target)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrSecurity)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("https://jira.example.com", "/rest/api/2/attachment/content/1")
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com/rest/api/2/attachment/content/1", got)

	got, err = Resolve("https://jira.example.com/", "https://jira.example.com:443/a")
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com:443/a", got)

	_, err = Resolve("https://jira.example.com", "https://evil.com/a")
	assert.ErrorIs(t, err, ErrSecurity)
}

func TestRedirectPolicy(t *testing.T) {
	policy := redirectPolicy("https://jira.example.com")
	req := func(raw string) *http.Request {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return &http.Request{URL: u}
	}
	first := req("https://jira.example.com/rest/api/2/myself")

	assert.NoError(t, policy(req("https://jira.example.com/moved"), []*http.Request{first}))
	assert.ErrorIs(t, policy(req("https://jira.example.com/again"), []*http.Request{first, first}), ErrSecurity)
	assert.ErrorIs(t, policy(req("http://jira.example.com/moved"), []*http.Request{first}), ErrSecurity)
	assert.ErrorIs(t, policy(req("https://evil.com/moved"), []*http.Request{first}), ErrSecurity)
}
