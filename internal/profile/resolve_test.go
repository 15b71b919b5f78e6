package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pat(url, token string, projects ...string) Profile {
	return Profile{URL: url, Credentials: PATCredentials{Token: token}, Projects: projects}
}

func scenarioDoc() *Document {
	return &Document{
		Version: 1,
		Default: "a",
		Profiles: map[string]Profile{
			"a": pat("https://a.com", "t1"),
			"b": pat("https://b.com", "t2", "X"),
		},
	}
}

func sampleDoc() *Document {
	return &Document{
		Version: 1,
		Default: "netresearch",
		Profiles: map[string]Profile{
			"netresearch": pat("https://jira.netresearch.de", "x", "NRS", "OPSMKK"),
			"mkk":         pat("https://jira.meine-krankenkasse.de", "y", "WEB", "INFRA"),
		},
	}
}

func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetupLogger(&buf, logging.LevelWarn)
	t.Cleanup(func() { logging.SetupLogger(os.Stderr, logging.LevelWarn) })
	return &buf
}

func TestResolveScenario(t *testing.T) {
	doc := scenarioDoc()

	p, err := Resolve(doc, Hints{IssueKey: "X-5"})
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name)

	p, err = Resolve(doc, Hints{})
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)

	p, err = Resolve(doc, Hints{Profile: "b", URL: "https://a.com"})
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name)
}

func TestResolvePriority(t *testing.T) {
	testCases := []struct {
		name  string
		hints Hints
		want  string
	}{
		{name: "Explicit profile", hints: Hints{Profile: "mkk"}, want: "mkk"},
		{name: "Explicit beats url", hints: Hints{Profile: "netresearch", URL: "https://jira.meine-krankenkasse.de"}, want: "netresearch"},
		{name: "Url host", hints: Hints{URL: "https://jira.meine-krankenkasse.de/browse/WEB-1"}, want: "mkk"},
		{name: "Url host with default port", hints: Hints{URL: "https://JIRA.meine-krankenkasse.de:443"}, want: "mkk"},
		{name: "Url beats issue key", hints: Hints{URL: "https://jira.meine-krankenkasse.de", IssueKey: "NRS-1"}, want: "mkk"},
		{name: "Unknown url falls through to issue key", hints: Hints{URL: "https://other.example.com", IssueKey: "WEB-1381"}, want: "mkk"},
		{name: "Issue key prefix", hints: Hints{IssueKey: "WEB-1381"}, want: "mkk"},
		{name: "Lowercase issue key", hints: Hints{IssueKey: "web-7"}, want: "mkk"},
		{name: "Unknown prefix falls through to default", hints: Hints{IssueKey: "UNKNOWN-999"}, want: "netresearch"},
		{name: "Malformed key falls through to default", hints: Hints{IssueKey: "not a key"}, want: "netresearch"},
		{name: "Url-shaped key falls through", hints: Hints{IssueKey: "https://jira.example.com/browse/WEB-1"}, want: "netresearch"},
		{name: "No hints uses default", hints: Hints{}, want: "netresearch"},
		{name: "Project hint", hints: Hints{Project: "web"}, want: "mkk"},
		{name: "Issue key beats project hint", hints: Hints{IssueKey: "NRS-1", Project: "WEB"}, want: "netresearch"},
		{name: "Unknown project falls through to default", hints: Hints{Project: "NOPE"}, want: "netresearch"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Resolve(sampleDoc(), tc.hints)
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Name)
		})
	}
}

func TestResolveUnknownExplicitProfile(t *testing.T) {
	_, err := Resolve(sampleDoc(), Hints{Profile: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "mkk, netresearch")
}

func TestResolveAmbiguousIssueKey(t *testing.T) {
	doc := &Document{
		Version: 1,
		Profiles: map[string]Profile{
			"a": pat("https://a.com", "x", "WEB"),
			"b": pat("https://b.com", "y", "WEB"),
		},
	}

	_, err := Resolve(doc, Hints{IssueKey: "WEB-100"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguous)

	var ambiguous *AmbiguousError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"a", "b"}, ambiguous.Candidates)
	assert.Contains(t, err.Error(), "a, b")
	assert.Contains(t, err.Error(), "--profile")
}

func TestResolveAmbiguousIssueKeyIgnoresDefault(t *testing.T) {
	doc := &Document{
		Default: "a",
		Profiles: map[string]Profile{
			"a": pat("https://a.com", "x", "WEB"),
			"b": pat("https://b.com", "y", "WEB"),
		},
	}
	_, err := Resolve(doc, Hints{IssueKey: "WEB-100"})
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestResolveAmbiguousURL(t *testing.T) {
	doc := &Document{
		Profiles: map[string]Profile{
			"alice": pat("https://jira.example.com", "x"),
			"bob":   pat("https://jira.example.com:443/", "y"),
		},
	}
	_, err := Resolve(doc, Hints{URL: "https://jira.example.com/browse/X-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguous)
	assert.Contains(t, err.Error(), "alice, bob")
}

func TestResolveDirectoryMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFile), []byte("  mkk \n"), 0o644))

	p, err := Resolve(sampleDoc(), Hints{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "mkk", p.Name)

	// Issue keys outrank the marker.
	p, err = Resolve(sampleDoc(), Hints{Dir: dir, IssueKey: "NRS-1"})
	require.NoError(t, err)
	assert.Equal(t, "netresearch", p.Name)
}

func TestResolveStaleMarkerWarnsAndFallsThrough(t *testing.T) {
	warnings := captureWarnings(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFile), []byte("ghost\n"), 0o644))

	p, err := Resolve(sampleDoc(), Hints{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "netresearch", p.Name)
	assert.Contains(t, warnings.String(), "ghost")
	assert.Contains(t, warnings.String(), "unknown profile")
}

func TestResolveMarkerReaderInjected(t *testing.T) {
	r := &Resolver{ReadMarker: func(dir string) (string, bool, error) {
		assert.Equal(t, "/work", dir)
		return "mkk", true, nil
	}}
	p, err := r.Resolve(sampleDoc(), Hints{Dir: "/work"})
	require.NoError(t, err)
	assert.Equal(t, "mkk", p.Name)

	broken := &Resolver{ReadMarker: func(string) (string, bool, error) {
		return "", false, errors.New("permission denied")
	}}
	p, err = broken.Resolve(sampleDoc(), Hints{Dir: "/work"})
	require.NoError(t, err)
	assert.Equal(t, "netresearch", p.Name)
}

func TestResolveExhausted(t *testing.T) {
	testCases := []struct {
		name string
		doc  *Document
	}{
		{
			name: "No default",
			doc:  &Document{Profiles: map[string]Profile{"b": pat("https://b.com", "y"), "a": pat("https://a.com", "x")}},
		},
		{
			name: "Dangling default",
			doc:  &Document{Default: "gone", Profiles: map[string]Profile{"b": pat("https://b.com", "y"), "a": pat("https://a.com", "x")}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.doc, Hints{IssueKey: "ZZZ-1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnresolved)
			assert.Contains(t, err.Error(), "a, b")
			assert.Contains(t, err.Error(), "--profile")
		})
	}
}

func TestResolveIsTotal(t *testing.T) {
	docs := []*Document{
		nil,
		{},
		sampleDoc(),
		scenarioDoc(),
		{Profiles: map[string]Profile{"a": {}, "b": pat("", "", "WEB", "WEB")}},
	}
	hintSets := []Hints{
		{},
		{Profile: "a"},
		{Profile: "missing"},
		{URL: "::not a url"},
		{URL: "https://a.com"},
		{IssueKey: "WEB-1"},
		{IssueKey: "-1"},
		{Dir: t.TempDir()},
		{Profile: "b", URL: "https://a.com", IssueKey: "X-5", Dir: t.TempDir()},
	}

	known := []error{ErrNotFound, ErrAmbiguous, ErrUnresolved}
	for _, doc := range docs {
		for _, hints := range hintSets {
			p, err := Resolve(doc, hints)
			if err == nil {
				assert.NotEmpty(t, p.Name)
				continue
			}
			matched := false
			for _, k := range known {
				if errors.Is(err, k) {
					matched = true
				}
			}
			assert.True(t, matched, "unexpected error kind: %v", err)
		}
	}
}

func TestResolveFromLoader(t *testing.T) {
	p, err := ResolveFrom(LoaderFunc(func() (*Document, error) { return scenarioDoc(), nil }), Hints{IssueKey: "X-5"})
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name)

	_, err = ResolveFrom(LoaderFunc(func() (*Document, error) { return nil, ErrMalformed }), Hints{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseIssueKey(t *testing.T) {
	testCases := []struct {
		key    string
		prefix string
		ok     bool
	}{
		{key: "WEB-1381", prefix: "WEB", ok: true},
		{key: "X-5", prefix: "X", ok: true},
		{key: "FIX_ME-123", prefix: "FIX_ME", ok: true},
		{key: "A1-2", prefix: "A1", ok: true},
		{key: "1A-2", ok: false},
		{key: "WEB-", ok: false},
		{key: "WEB-12a", ok: false},
		{key: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			prefix, ok := ParseIssueKey(tc.key)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.prefix, prefix)
		})
	}
}

func TestProfileValidate(t *testing.T) {
	valid := Profile{URL: "https://j.example.com", Credentials: PATCredentials{Token: "abc"}}
	assert.NoError(t, valid.Validate())

	err := Profile{Name: "broken", Credentials: PATCredentials{Token: "x"}}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), "'url'")

	err = Profile{URL: "https://x.atlassian.net", Credentials: BasicCredentials{Username: "me"}}.Validate()
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, []string{"api_token"}, fieldErr.Fields)
	assert.Equal(t, AuthBasic, fieldErr.Auth)
}

func TestParseProjects(t *testing.T) {
	assert.Equal(t, []string{"WEB", "INFRA"}, ParseProjects(" web, INFRA ,,"))
	assert.Nil(t, ParseProjects(""))
}
