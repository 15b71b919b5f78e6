package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range AllKeys {
		t.Setenv(key, "")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env.jira")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromProfile(t *testing.T) {
	testCases := []struct {
		name    string
		profile profile.Profile
		want    Config
	}{
		{
			name: "PAT profile",
			profile: profile.Profile{
				Name:        "onprem",
				URL:         "https://jira.example.com/",
				Credentials: profile.PATCredentials{Token: "pat-token"},
			},
			want: Config{URL: "https://jira.example.com", Auth: profile.AuthPAT, PersonalToken: "pat-token", Profile: "onprem"},
		},
		{
			name: "Cloud profile",
			profile: profile.Profile{
				Name:        "work",
				URL:         "https://company.atlassian.net",
				Credentials: profile.BasicCredentials{Username: "me@example.com", APIToken: "api"},
			},
			want: Config{URL: "https://company.atlassian.net", Auth: profile.AuthBasic, Username: "me@example.com", APIToken: "api", Profile: "work"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := FromProfile(tc.profile)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *cfg)
			assert.Empty(t, cfg.Problems())
		})
	}
}

func TestFromProfileMissingFields(t *testing.T) {
	testCases := []struct {
		name    string
		profile profile.Profile
		field   string
	}{
		{
			name:    "PAT without token",
			profile: profile.Profile{Name: "p", URL: "https://j.example.com", Credentials: profile.PATCredentials{}},
			field:   "token",
		},
		{
			name:    "Cloud without api token",
			profile: profile.Profile{Name: "c", URL: "https://x.atlassian.net", Credentials: profile.BasicCredentials{Username: "me"}},
			field:   "api_token",
		},
		{
			name:    "Missing url",
			profile: profile.Profile{Name: "u", Credentials: profile.PATCredentials{Token: "t"}},
			field:   "url",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := FromProfile(tc.profile)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, profile.ErrInvalidProfile)
			assert.Contains(t, err.Error(), "'"+tc.field+"'")
		})
	}
}

func TestIsCloudURL(t *testing.T) {
	testCases := []struct {
		url  string
		want bool
	}{
		{url: "https://company.atlassian.net", want: true},
		{url: "https://COMPANY.Atlassian.NET/browse/X-1", want: true},
		{url: "https://atlassian.net", want: true},
		{url: "https://company.atlassian.net:443", want: true},
		{url: "https://jira.example.com", want: false},
		{url: "https://attacker-atlassian.net.evil.com", want: false},
		{url: "https://atlassian.net.evil.com", want: false},
		{url: "https://notatlassian.net", want: false},
		{url: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCloudURL(tc.url))
		})
	}
}

func TestIsCloudExplicitOverride(t *testing.T) {
	cfg := &Config{URL: "https://jira.example.com", Cloud: "true"}
	assert.True(t, cfg.IsCloud())

	cfg = &Config{URL: "https://company.atlassian.net", Cloud: "false"}
	assert.False(t, cfg.IsCloud())

	cfg = &Config{URL: "https://company.atlassian.net"}
	assert.True(t, cfg.IsCloud())
}

func TestProblems(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		contains []string
	}{
		{
			name:     "Nothing set",
			cfg:      Config{},
			contains: []string{KeyURL, "Missing authentication credentials"},
		},
		{
			name:     "Bad scheme",
			cfg:      Config{URL: "jira.example.com", Auth: profile.AuthPAT, PersonalToken: "t"},
			contains: []string{"http:// or https://"},
		},
		{
			name:     "Basic missing token",
			cfg:      Config{URL: "https://x.atlassian.net", Auth: profile.AuthBasic, Username: "me"},
			contains: []string{KeyAPIToken},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			problems := tc.cfg.Problems()
			require.NotEmpty(t, problems)
			joined := ""
			for _, p := range problems {
				joined += p + "\n"
			}
			for _, want := range tc.contains {
				assert.Contains(t, joined, want)
			}
			assert.ErrorIs(t, tc.cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, `# tracker settings
export JIRA_URL="https://jira.example.com/"
JIRA_PERSONAL_TOKEN='pat-secret'

JIRA_CLOUD=false
`)

	cfg, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com", cfg.URL)
	assert.Equal(t, "pat-secret", cfg.PersonalToken)
	assert.Equal(t, profile.AuthPAT, cfg.Auth)
	assert.False(t, cfg.IsCloud())
	assert.Equal(t, path, cfg.Source)
	assert.Empty(t, cfg.Problems())
}

func TestLoadEnvFileEnvironmentFillsGaps(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyURL, "https://ignored.example.com")
	t.Setenv(KeyUsername, "me@example.com")
	t.Setenv(KeyAPIToken, "from-env")
	path := writeEnvFile(t, "JIRA_URL=https://company.atlassian.net\n")

	cfg, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://company.atlassian.net", cfg.URL, "file wins over environment")
	assert.Equal(t, "me@example.com", cfg.Username)
	assert.Equal(t, "from-env", cfg.APIToken)
	assert.Equal(t, profile.AuthBasic, cfg.Auth)
	assert.True(t, cfg.IsCloud())
}

func TestLoadEnvFileMalformedLineKeepsSecret(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "JIRA_URL=https://jira.example.com\nJIRA PERSONAL_TOKEN=sekret123456\n")

	_, err := LoadEnvFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), path)
	assert.NotContains(t, err.Error(), "sekret123456")
}

func TestLoadEnvFileMissing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	storePath := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(storePath, []byte(`{
  "version": 1,
  "default": "a",
  "profiles": {
    "a": {"url": "https://a.com", "auth": "pat", "token": "t1"},
    "b": {"url": "https://b.com", "auth": "pat", "token": "t2", "projects": ["X"]}
  }
}`), 0o600))
	store := profile.NewStore(storePath)

	cfg, err := Load(Options{Store: store, IssueKey: "X-5", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.Profile)
	assert.Equal(t, "t2", cfg.PersonalToken)
	assert.Equal(t, storePath, cfg.Source)

	cfg, err = Load(Options{Store: store, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.Profile)

	// An explicit env file bypasses the store.
	envPath := writeEnvFile(t, "JIRA_URL=https://legacy.example.com\nJIRA_PERSONAL_TOKEN=legacy\n")
	cfg, err = Load(Options{Store: store, EnvFile: envPath, Profile: "a"})
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com", cfg.URL)
	assert.Empty(t, cfg.Profile)
}

func TestLoadWithoutStore(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env.jira"),
		[]byte("JIRA_URL=https://legacy.example.com\nJIRA_PERSONAL_TOKEN=legacy\n"), 0o600))
	store := profile.NewStore(filepath.Join(t.TempDir(), "profiles.json"))

	cfg, err := Load(Options{Store: store})
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com", cfg.URL)

	_, err = Load(Options{Store: store, Profile: "work"})
	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrNotFound)
	assert.Contains(t, err.Error(), "setup --profile work")
}

func TestLoadMalformedStoreFallsBackToLegacy(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env.jira"),
		[]byte("JIRA_URL=https://legacy.example.com\nJIRA_PERSONAL_TOKEN=legacy\n"), 0o600))
	storePath := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(storePath, []byte("{broken"), 0o600))
	store := profile.NewStore(storePath)

	cfg, err := Load(Options{Store: store})
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com", cfg.URL)

	_, err = Load(Options{Store: store, Profile: "a"})
	assert.ErrorIs(t, err, profile.ErrMalformed)
}

func TestToProfileRoundTrip(t *testing.T) {
	legacy := &Config{URL: "https://jira.example.com", Auth: profile.AuthPAT, PersonalToken: "tok"}
	p := legacy.ToProfile()
	p.Name = "default"

	cfg, err := FromProfile(p)
	require.NoError(t, err)
	assert.Empty(t, cfg.Problems())
	assert.Equal(t, "tok", cfg.PersonalToken)
}
