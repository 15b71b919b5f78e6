package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielolaszy/jiractl/internal/logging"
)

const (
	// CurrentVersion is the store format version written by Save.
	CurrentVersion = 1
	// BackupSuffix is appended to the store path when a malformed store is
	// moved aside.
	BackupSuffix = ".bak"
	// EnvProfilesFile overrides the default store location.
	EnvProfilesFile = "JIRA_PROFILES_FILE"
)

// Document is the persisted profile store.
type Document struct {
	Version  int
	Default  string
	Profiles map[string]Profile

	// Extra holds unknown top-level keys.
	Extra map[string]json.RawMessage

	// unusable holds profile entries that are not objects. They are kept
	// on disk but never resolved.
	unusable map[string]json.RawMessage
}

// MarshalJSON writes the store document, including unknown keys and
// unusable profile entries read earlier.
func (d *Document) MarshalJSON() ([]byte, error) {
	profiles := make(map[string]any, len(d.Profiles)+len(d.unusable))
	for name, raw := range d.unusable {
		profiles[name] = raw
	}
	for name, p := range d.Profiles {
		profiles[name] = p
	}

	out := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	out["version"] = d.Version
	if d.Default != "" {
		out["default"] = d.Default
	}
	out["profiles"] = profiles
	return json.Marshal(out)
}

// NewDocument returns an empty store document.
func NewDocument() *Document {
	return &Document{Version: CurrentVersion, Profiles: make(map[string]Profile)}
}

// Names returns the profile names in sorted order.
func (d *Document) Names() []string {
	return sortedKeys(d.Profiles)
}

// Get returns the named profile with its Name populated.
func (d *Document) Get(name string) (Profile, bool) {
	p, ok := d.Profiles[name]
	if !ok {
		return Profile{}, false
	}
	p.Name = name
	return p, true
}

// Loader supplies a store document to the resolver.
type Loader interface {
	Load() (*Document, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func() (*Document, error)

// Load implements Loader.
func (f LoaderFunc) Load() (*Document, error) { return f() }

// Store reads and writes the profile document at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns $JIRA_PROFILES_FILE or ~/.jira/profiles.json.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvProfilesFile); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".jira", "profiles.json"), nil
}

// Path returns the store's file path.
func (s *Store) Path() string { return s.path }

// Exists reports whether the store file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the store. A missing file yields an error wrapping ErrNotFound;
// unparseable JSON, a wrong shape, or an empty profile set yields an error
// wrapping ErrMalformed.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("profiles file %s: %w", s.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file %s: %w", s.path, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if len(doc.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles defined in %s: %w", s.path, ErrMalformed)
	}
	return doc, nil
}

// Save inserts or replaces the named profile and makes it the default when
// no default is set. A malformed existing store is renamed to the backup
// path first and replaced by a fresh document.
func (s *Store) Save(name string, p Profile) error {
	if name == "" {
		return errors.New("profile name is required")
	}

	doc, err := s.loadForWrite()
	if err != nil {
		return err
	}

	p.Name = ""
	doc.Profiles[name] = p
	if doc.Default == "" {
		doc.Default = name
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	if err := WriteFileAtomic(s.path, append(data, '\n')); err != nil {
		return err
	}
	logging.Info("saved profile", "profile", name, "path", s.path)
	return nil
}

func (s *Store) loadForWrite() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file %s: %w", s.path, err)
	}

	doc, err := parseDocument(data)
	if err == nil {
		return doc, nil
	}

	backup := s.path + BackupSuffix
	logging.Warn("profiles file is malformed, moving it aside and starting fresh",
		"path", s.path,
		"backup", backup,
		"error", err)
	if err := os.Rename(s.path, backup); err != nil {
		return nil, fmt.Errorf("failed to back up malformed profiles file: %w", err)
	}
	return NewDocument(), nil
}

// parseDocument checks the structural shape {profiles: {...}}. Each
// profile is decoded on its own, so one bad entry does not make the whole
// store malformed. An empty profile mapping is structurally valid here.
func parseDocument(data []byte) (*Document, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON: %w", ErrMalformed)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, fmt.Errorf("document is not an object: %w", ErrMalformed)
	}
	rawProfiles, ok := raw["profiles"]
	if !ok {
		return nil, fmt.Errorf("missing 'profiles' key: %w", ErrMalformed)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(rawProfiles, &entries); err != nil || entries == nil {
		return nil, fmt.Errorf("'profiles' is not a mapping: %w", ErrMalformed)
	}

	doc := &Document{Profiles: make(map[string]Profile, len(entries))}
	for name, entry := range entries {
		var p Profile
		if err := json.Unmarshal(entry, &p); err != nil {
			logging.Warn("skipping unusable profile", "profile", name, "error", err)
			if doc.unusable == nil {
				doc.unusable = make(map[string]json.RawMessage)
			}
			doc.unusable[name] = entry
			continue
		}
		doc.Profiles[name] = p
	}

	for key, value := range raw {
		switch key {
		case "profiles":
		case "version":
			if err := json.Unmarshal(value, &doc.Version); err != nil {
				return nil, fmt.Errorf("'version' is not an integer: %w", ErrMalformed)
			}
		case "default":
			if string(value) == "null" {
				continue
			}
			if err := json.Unmarshal(value, &doc.Default); err != nil {
				return nil, fmt.Errorf("'default' is not a string: %w", ErrMalformed)
			}
		default:
			if doc.Extra == nil {
				doc.Extra = make(map[string]json.RawMessage)
			}
			doc.Extra[key] = value
		}
	}
	return doc, nil
}

// WriteFileAtomic writes data to path through a temporary sibling that is
// created with mode 0600 and renamed into place. The parent directory is
// created with mode 0700 when missing.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// CreateTemp opens with O_EXCL and mode 0600.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
