// Package profile stores named tracker connection profiles and decides which
// one a given invocation should use.
package profile

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
)

// AuthKind identifies how a profile authenticates against the tracker.
type AuthKind string

const (
	// AuthPAT authenticates with a single personal access token (Server/DC).
	AuthPAT AuthKind = "pat"
	// AuthBasic authenticates with a username and API token (Cloud).
	AuthBasic AuthKind = "cloud"
)

// Credentials is the auth-kind specific part of a profile.
type Credentials interface {
	Kind() AuthKind
	missing() []string
}

// PATCredentials holds a personal access token.
type PATCredentials struct {
	Token string
}

// Kind implements Credentials.
func (PATCredentials) Kind() AuthKind { return AuthPAT }

func (c PATCredentials) missing() []string {
	if strings.TrimSpace(c.Token) == "" {
		return []string{"token"}
	}
	return nil
}

// BasicCredentials holds a username and its API token.
type BasicCredentials struct {
	Username string
	APIToken string
}

// Kind implements Credentials.
func (BasicCredentials) Kind() AuthKind { return AuthBasic }

func (c BasicCredentials) missing() []string {
	var fields []string
	if strings.TrimSpace(c.Username) == "" {
		fields = append(fields, "username")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		fields = append(fields, "api_token")
	}
	return fields
}

// Profile is a named tracker connection.
type Profile struct {
	// Name is the key of the profile in the store. It is not persisted
	// inside the profile body.
	Name string

	// URL is the base URL of the tracker instance.
	URL string

	// Credentials is either PATCredentials or BasicCredentials.
	Credentials Credentials

	// Projects lists the project key prefixes served by this instance.
	Projects []string

	// Extra holds keys the tool does not know, so a rewrite keeps them.
	Extra map[string]json.RawMessage
}

// Validate reports the required fields the profile is missing for its auth
// kind. It returns nil for a usable profile.
func (p Profile) Validate() error {
	var fields []string
	if strings.TrimSpace(p.URL) == "" {
		fields = append(fields, "url")
	}
	creds := p.Credentials
	if creds == nil {
		creds = PATCredentials{}
	}
	fields = append(fields, creds.missing()...)
	if len(fields) > 0 {
		return &FieldError{Profile: p.Name, Auth: creds.Kind(), Fields: fields}
	}
	return nil
}

// AuthKind returns the profile's auth kind, defaulting to PAT.
func (p Profile) AuthKind() AuthKind {
	if p.Credentials == nil {
		return AuthPAT
	}
	return p.Credentials.Kind()
}

// HasProject reports whether prefix is one of the profile's project keys.
func (p Profile) HasProject(prefix string) bool {
	for _, project := range p.Projects {
		if strings.EqualFold(strings.TrimSpace(project), prefix) {
			return true
		}
	}
	return false
}

// Persisted profile keys.
const (
	keyURL      = "url"
	keyAuth     = "auth"
	keyToken    = "token"
	keyUsername = "username"
	keyAPIToken = "api_token"
	keyProjects = "projects"
)

// MarshalJSON writes the on-disk profile shape. Keys in Extra are written
// back unless a known field of the same name is set.
func (p Profile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+6)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.URL != "" {
		out[keyURL] = p.URL
	}
	switch c := p.Credentials.(type) {
	case BasicCredentials:
		out[keyAuth] = AuthBasic
		setString(out, keyUsername, c.Username)
		setString(out, keyAPIToken, c.APIToken)
	case PATCredentials:
		out[keyAuth] = AuthPAT
		setString(out, keyToken, c.Token)
	default:
		out[keyAuth] = AuthPAT
	}
	if p.Projects != nil {
		out[keyProjects] = p.Projects
	}
	return json.Marshal(out)
}

func setString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// UnmarshalJSON reads the on-disk profile shape. The body must be an
// object; individual fields of the wrong type are ignored and kept in
// Extra. Any auth value other than "cloud" (or "basic") is treated as a
// personal access token profile.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("profile is not an object")
	}

	var auth, token, username, apiToken string
	stringFields := map[string]*string{
		keyURL:      &p.URL,
		keyAuth:     &auth,
		keyToken:    &token,
		keyUsername: &username,
		keyAPIToken: &apiToken,
	}
	p.Extra = nil
	for key, value := range raw {
		if dst, ok := stringFields[key]; ok && json.Unmarshal(value, dst) == nil {
			continue
		}
		if key == keyProjects {
			if projects, ok := decodeProjects(value); ok {
				p.Projects = projects
				continue
			}
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[key] = value
	}

	switch AuthKind(strings.ToLower(auth)) {
	case AuthBasic, "basic":
		p.Credentials = BasicCredentials{Username: username, APIToken: apiToken}
	default:
		p.Credentials = PATCredentials{Token: token}
	}
	return nil
}

// decodeProjects accepts a list and keeps its string entries. Anything
// other than a list is rejected.
func decodeProjects(value json.RawMessage) ([]string, bool) {
	var items []any
	if err := json.Unmarshal(value, &items); err != nil || items == nil {
		return nil, false
	}
	projects := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			projects = append(projects, s)
		}
	}
	return projects, true
}

var issueKeyPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)-(\d+)$`)

// ParseIssueKey splits an issue key such as "WEB-1381" into its upper-cased
// project prefix. ok is false when key is not shaped PREFIX-NUMBER.
func ParseIssueKey(key string) (prefix string, ok bool) {
	m := issueKeyPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// ParseProjects splits a comma-separated project list, dropping blanks.
func ParseProjects(s string) []string {
	var projects []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			projects = append(projects, strings.ToUpper(part))
		}
	}
	return projects
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
