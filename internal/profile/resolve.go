package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/netloc"
)

// MarkerFile is the per-directory file naming the profile to use there.
const MarkerFile = ".jira-profile"

// Hints are the per-invocation inputs to profile resolution. All fields are
// optional.
type Hints struct {
	Profile  string
	URL      string
	IssueKey string
	// Project stands in for the issue key prefix when IssueKey is empty.
	Project string
	Dir     string
}

// MarkerReader returns the profile name recorded in dir, if any.
type MarkerReader func(dir string) (name string, ok bool, err error)

// ReadMarker reads the trimmed first line of dir/.jira-profile.
func ReadMarker(dir string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	name := strings.TrimSpace(line)
	return name, name != "", nil
}

// Resolver picks exactly one profile out of a store document.
type Resolver struct {
	// ReadMarker defaults to the filesystem-backed ReadMarker.
	ReadMarker MarkerReader
}

// Resolve applies the default resolver to doc.
func Resolve(doc *Document, hints Hints) (Profile, error) {
	return (&Resolver{}).Resolve(doc, hints)
}

// ResolveFrom loads a document from l and resolves hints against it.
func ResolveFrom(l Loader, hints Hints) (Profile, error) {
	doc, err := l.Load()
	if err != nil {
		return Profile{}, err
	}
	return Resolve(doc, hints)
}

// Resolve walks the priority chain:
//
//  1. explicit profile name
//  2. URL host
//  3. issue key project prefix, or the project hint
//  4. directory marker
//  5. stored default
//
// A step commits only on exactly one match. Multiple matches at steps 2 and
// 3 fail with an *AmbiguousError.
func (r *Resolver) Resolve(doc *Document, hints Hints) (Profile, error) {
	if doc == nil || len(doc.Profiles) == 0 {
		return Profile{}, fmt.Errorf("no profiles defined: %w", ErrNotFound)
	}

	if name := strings.TrimSpace(hints.Profile); name != "" {
		p, ok := doc.Get(name)
		if !ok {
			return Profile{}, fmt.Errorf("profile '%s' %w. Available: %s",
				name, ErrNotFound, strings.Join(doc.Names(), ", "))
		}
		return p, nil
	}

	if host := netloc.Host(hints.URL); host != "" {
		var matches []string
		for _, name := range doc.Names() {
			if netloc.Host(doc.Profiles[name].URL) == host {
				matches = append(matches, name)
			}
		}
		switch len(matches) {
		case 1:
			p, _ := doc.Get(matches[0])
			return p, nil
		case 0:
			logging.Debug("no profile matches url host", "host", host)
		default:
			return Profile{}, &AmbiguousError{Match: host, Candidates: matches}
		}
	}

	prefix, ok := ParseIssueKey(hints.IssueKey)
	if !ok && strings.TrimSpace(hints.Project) != "" {
		prefix, ok = strings.ToUpper(strings.TrimSpace(hints.Project)), true
	}
	if ok {
		matches := doc.matchProject(prefix)
		switch len(matches) {
		case 1:
			p, _ := doc.Get(matches[0])
			return p, nil
		case 0:
			logging.Debug("no profile serves project", "project", prefix)
		default:
			return Profile{}, &AmbiguousError{Match: prefix, Candidates: matches}
		}
	}

	if hints.Dir != "" {
		read := r.ReadMarker
		if read == nil {
			read = ReadMarker
		}
		name, ok, err := read(hints.Dir)
		switch {
		case err != nil:
			logging.Warn("failed to read "+MarkerFile+", skipping", "dir", hints.Dir, "error", err)
		case ok:
			if p, found := doc.Get(name); found {
				return p, nil
			}
			logging.Warn(MarkerFile+" references unknown profile, skipping", "profile", name, "dir", hints.Dir)
		}
	}

	if doc.Default != "" {
		if p, ok := doc.Get(doc.Default); ok {
			return p, nil
		}
		logging.Debug("default profile does not exist", "profile", doc.Default)
	}

	return Profile{}, fmt.Errorf("%w. Available profiles: %s. Use --profile to specify one",
		ErrUnresolved, strings.Join(doc.Names(), ", "))
}

// matchProject returns the sorted names of profiles serving prefix.
func (d *Document) matchProject(prefix string) []string {
	var matches []string
	for _, name := range d.Names() {
		if d.Profiles[name].HasProject(prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}
