package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfiles = `{
  "version": 1,
  "default": "netresearch",
  "profiles": {
    "netresearch": {"url": "https://jira.netresearch.de", "auth": "pat", "token": "x", "projects": ["NRS", "OPSMKK"]},
    "mkk": {"url": "https://jira.meine-krankenkasse.de", "auth": "pat", "token": "y", "projects": ["WEB", "INFRA"]}
  }
}`

func storeWith(t *testing.T, content string) *profile.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return profile.NewStore(path)
}

func TestIssueKeys(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{name: "Single key", text: "Fix WEB-1381", want: []string{"WEB-1381"}},
		{name: "Multiple keys sorted", text: "WEB-1381 and NRS-4167", want: []string{"NRS-4167", "WEB-1381"}},
		{name: "Key from url", text: "https://jira.example.com/browse/PROJ-123", want: []string{"PROJ-123"}},
		{name: "Key from cloud url", text: "https://company.atlassian.net/browse/CLOUD-42", want: []string{"CLOUD-42"}},
		{name: "No keys", text: "No issues here", want: []string{}},
		{name: "Deduplicates", text: "WEB-1381 see WEB-1381 again", want: []string{"WEB-1381"}},
		{name: "Underscore prefix", text: "FIX_ME-123 is an issue", want: []string{"FIX_ME-123"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IssueKeys(tc.text))
		})
	}
}

func TestHosts(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{name: "Server url", text: "Check https://jira.example.com/browse/PROJ-1", want: []string{"https://jira.example.com"}},
		{name: "Cloud url", text: "See https://company.atlassian.net/browse/CLOUD-1", want: []string{"https://company.atlassian.net"}},
		{name: "Multiple hosts", text: "https://jira.a.com/browse/A-1 and https://jira.b.com/browse/B-2", want: []string{"https://jira.a.com", "https://jira.b.com"}},
		{name: "No hosts", text: "No URLs here WEB-123", want: nil},
		{name: "Trailing paren and period", text: "see https://jira.example.com).", want: []string{"https://jira.example.com"}},
		{name: "Trailing comma", text: "check https://jira.example.com, and more", want: []string{"https://jira.example.com"}},
		{name: "Deduplicates", text: "https://jira.example.com/a https://JIRA.example.com:443/b", want: []string{"https://jira.example.com"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Hosts(tc.text))
		})
	}
}

func TestPromptText(t *testing.T) {
	assert.Equal(t, "Check WEB-1", PromptText([]byte(`{"prompt": "Check WEB-1"}`)))
	assert.Equal(t, "from content", PromptText([]byte(`{"prompt": "", "content": "from content"}`)))
	assert.Equal(t, "from message", PromptText([]byte(`{"message": "from message"}`)))
	assert.Equal(t, "", PromptText([]byte(`{"other": "x"}`)))
	assert.Equal(t, "raw WEB-1 text", PromptText([]byte("raw WEB-1 text")))
	assert.Equal(t, `["WEB-1"]`, PromptText([]byte(`["WEB-1"]`)))
}

func TestSuggest(t *testing.T) {
	testCases := []struct {
		name  string
		keys  []string
		hosts []string
		want  string
	}{
		{name: "Via host", keys: []string{"WEB-1"}, hosts: []string{"https://jira.meine-krankenkasse.de"}, want: "mkk"},
		{name: "Via project key", keys: []string{"NRS-4167"}, want: "netresearch"},
		{name: "No match", keys: []string{"UNKNOWN-999"}, want: ""},
		{name: "Host beats key", keys: []string{"NRS-1"}, hosts: []string{"https://jira.meine-krankenkasse.de"}, want: "mkk"},
		{name: "Unknown host falls to key", keys: []string{"NRS-1"}, hosts: []string{"https://elsewhere.example.com"}, want: "netresearch"},
	}

	store := storeWith(t, sampleProfiles)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Suggest(store, tc.keys, tc.hosts))
		})
	}
}

func TestSuggestIsSilentOnAmbiguity(t *testing.T) {
	store := storeWith(t, `{"version":1,"profiles":{
		"a":{"url":"https://a.com","auth":"pat","token":"x","projects":["WEB"]},
		"b":{"url":"https://b.com","auth":"pat","token":"y","projects":["WEB"]}}}`)

	assert.Equal(t, "", Suggest(store, []string{"WEB-100"}, nil))
}

func TestSuggestUnusableStore(t *testing.T) {
	testCases := []struct {
		name  string
		store *profile.Store
	}{
		{name: "Missing file", store: profile.NewStore(filepath.Join(t.TempDir(), "nonexistent.json"))},
		{name: "JSON list", store: storeWith(t, `["not", "a", "dict"]`)},
		{name: "Profiles is a list", store: storeWith(t, `{"profiles": ["not", "a", "dict"]}`)},
		{name: "Profiles is a string", store: storeWith(t, `{"profiles": "not a dict"}`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, "", Suggest(tc.store, []string{"WEB-1"}, nil))
		})
	}
}
