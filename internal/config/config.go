// Package config materializes the flat connection settings consumed by the
// tracker client, either from a resolved profile or from a legacy env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/spf13/viper"
)

// Legacy env file and environment variable names.
const (
	KeyURL           = "JIRA_URL"
	KeyUsername      = "JIRA_USERNAME"
	KeyAPIToken      = "JIRA_API_TOKEN"
	KeyPersonalToken = "JIRA_PERSONAL_TOKEN"
	KeyCloud         = "JIRA_CLOUD"
)

// AllKeys lists every key read from env files and the environment.
var AllKeys = []string{KeyURL, KeyUsername, KeyAPIToken, KeyPersonalToken, KeyCloud}

// CloudDomain is the registrable domain of hosted tracker instances.
const CloudDomain = "atlassian.net"

// ErrInvalidConfig indicates the materialized settings cannot build a client.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the flat connection settings for one invocation.
type Config struct {
	URL           string
	Auth          profile.AuthKind
	PersonalToken string
	Username      string
	APIToken      string

	// Cloud is the raw JIRA_CLOUD declaration; empty means infer from URL.
	Cloud string

	// Profile is the name of the profile the settings came from, empty for
	// legacy env files.
	Profile string

	// Source is the file the settings were read from.
	Source string
}

// IsCloud reports whether the instance is a hosted (Cloud) deployment. An
// explicit JIRA_CLOUD declaration wins over URL inference.
func (c *Config) IsCloud() bool {
	if strings.TrimSpace(c.Cloud) != "" {
		return strings.EqualFold(strings.TrimSpace(c.Cloud), "true")
	}
	return IsCloudURL(c.URL)
}

// IsCloudURL reports whether rawURL's host is CloudDomain or a subdomain of
// it. Hosts merely containing the domain, such as
// "attacker-atlassian.net.evil.com", do not qualify.
func IsCloudURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == CloudDomain || strings.HasSuffix(host, "."+CloudDomain)
}

// Problems lists everything that prevents the settings from building a
// client. An empty result means the settings are usable.
func (c *Config) Problems() []string {
	var problems []string

	if strings.TrimSpace(c.URL) == "" {
		problems = append(problems, "Missing required variable: "+KeyURL)
	} else if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		problems = append(problems, fmt.Sprintf("%s must start with http:// or https://: %s", KeyURL, c.URL))
	}

	switch c.Auth {
	case profile.AuthPAT:
		if c.PersonalToken == "" {
			problems = append(problems, "Missing required variable: "+KeyPersonalToken)
		}
	case profile.AuthBasic:
		var missing []string
		if c.Username == "" {
			missing = append(missing, KeyUsername)
		}
		if c.APIToken == "" {
			missing = append(missing, KeyAPIToken)
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("Missing required variables: %v", missing))
		}
	default:
		problems = append(problems, "Missing authentication credentials. Provide either:\n"+
			"    - "+KeyUsername+" + "+KeyAPIToken+" (for Cloud)\n"+
			"    - "+KeyPersonalToken+" (for Server/DC)")
	}

	return problems
}

// Validate returns an error wrapping ErrInvalidConfig when Problems is not
// empty.
func (c *Config) Validate() error {
	problems := c.Problems()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n  %s", ErrInvalidConfig, strings.Join(problems, "\n  "))
}

// FromProfile projects a resolved profile into flat settings. Missing
// fields fail here, before any request is made.
func FromProfile(p profile.Profile) (*Config, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{URL: strings.TrimRight(p.URL, "/"), Auth: p.AuthKind(), Profile: p.Name}
	switch c := p.Credentials.(type) {
	case profile.BasicCredentials:
		cfg.Username = c.Username
		cfg.APIToken = c.APIToken
	case profile.PATCredentials:
		cfg.PersonalToken = c.Token
	}
	return cfg, nil
}

// ToProfile converts legacy settings into a profile body.
func (c *Config) ToProfile() profile.Profile {
	p := profile.Profile{URL: c.URL, Projects: []string{}}
	if c.PersonalToken != "" {
		p.Credentials = profile.PATCredentials{Token: c.PersonalToken}
	} else {
		p.Credentials = profile.BasicCredentials{Username: c.Username, APIToken: c.APIToken}
	}
	return p
}

// DefaultEnvFile returns ~/.env.jira.
func DefaultEnvFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".env.jira"
	}
	return filepath.Join(home, ".env.jira")
}

// LoadEnvFile reads settings from an explicitly named env file. The file
// must exist. Keys absent from the file are filled from the environment.
func LoadEnvFile(path string) (*Config, error) {
	return loadEnv(path, true)
}

// LoadLegacy reads ~/.env.jira when present and fills the rest from the
// environment.
func LoadLegacy() (*Config, error) {
	return loadEnv(DefaultEnvFile(), false)
}

func loadEnv(path string, mustExist bool) (*Config, error) {
	values := make(map[string]string)

	if _, err := os.Stat(path); err == nil {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			// The parser echoes the offending line, which may hold a secret.
			return nil, fmt.Errorf("failed to parse environment file %s: expected KEY=value lines: %w", path, ErrInvalidConfig)
		}
		for _, key := range AllKeys {
			lk := strings.ToLower(key)
			if v.InConfig(lk) {
				values[key] = v.GetString(lk)
			}
		}
		logging.Debug("loaded environment file", "path", path, "keys", len(values))
	} else if mustExist {
		return nil, fmt.Errorf("environment file %s: %w", path, profile.ErrNotFound)
	}

	// Fill in missing values from the process environment.
	env := viper.New()
	for _, key := range AllKeys {
		if _, ok := values[key]; ok {
			continue
		}
		if err := env.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
		if env.IsSet(key) {
			values[key] = env.GetString(key)
		}
	}

	cfg := &Config{
		URL:           strings.TrimRight(values[KeyURL], "/"),
		PersonalToken: values[KeyPersonalToken],
		Username:      values[KeyUsername],
		APIToken:      values[KeyAPIToken],
		Cloud:         values[KeyCloud],
		Source:        path,
	}
	switch {
	case cfg.PersonalToken != "":
		cfg.Auth = profile.AuthPAT
	case cfg.Username != "" || cfg.APIToken != "":
		cfg.Auth = profile.AuthBasic
	}
	return cfg, nil
}

// Options carries the per-invocation inputs to Load.
type Options struct {
	// Profile is an explicit profile name (--profile).
	Profile string
	// EnvFile is an explicit legacy env file (--env-file). It bypasses
	// profile resolution entirely.
	EnvFile string
	// IssueKey and URL are resolution hints taken from command arguments.
	IssueKey string
	URL      string
	// Project is a project key hint for commands that take no issue key.
	Project string
	// Dir is searched for a directory marker. Empty means the working
	// directory.
	Dir string
	// Store overrides the profile store location.
	Store *profile.Store
}

// Load produces settings for one invocation:
//
//  1. an explicit env file, used verbatim;
//  2. the profile store, when it exists, resolved against the hints;
//  3. ~/.env.jira and the environment.
//
// A malformed store is reported as a warning and skipped.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		return LoadEnvFile(opts.EnvFile)
	}

	store := opts.Store
	if store == nil {
		path, err := profile.DefaultPath()
		if err != nil {
			return nil, err
		}
		store = profile.NewStore(path)
	}

	doc, err := store.Load()
	switch {
	case err == nil:
		dir := opts.Dir
		if dir == "" {
			if wd, err := os.Getwd(); err == nil {
				dir = wd
			}
		}
		p, err := profile.Resolve(doc, profile.Hints{
			Profile:  opts.Profile,
			URL:      opts.URL,
			IssueKey: opts.IssueKey,
			Project:  opts.Project,
			Dir:      dir,
		})
		if err != nil {
			return nil, err
		}
		logging.Debug("resolved profile", "profile", p.Name, "url", p.URL)
		cfg, err := FromProfile(p)
		if err != nil {
			return nil, err
		}
		cfg.Source = store.Path()
		return cfg, nil

	case errors.Is(err, profile.ErrMalformed):
		logging.Warn("ignoring unusable profiles file", "path", store.Path(), "error", err)
		if opts.Profile != "" {
			return nil, fmt.Errorf("profile '%s' requested but %s is unusable: %w", opts.Profile, store.Path(), err)
		}

	case errors.Is(err, profile.ErrNotFound):
		if opts.Profile != "" {
			return nil, fmt.Errorf("profile '%s' requested but %s does not exist: %w\n  Run: jiractl setup --profile %s",
				opts.Profile, store.Path(), profile.ErrNotFound, opts.Profile)
		}

	default:
		return nil, err
	}

	return LoadLegacy()
}
