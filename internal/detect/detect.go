// Package detect finds tracker references in free text and suggests which
// profile would serve them.
package detect

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/danielolaszy/jiractl/internal/netloc"
	"github.com/danielolaszy/jiractl/internal/profile"
)

var (
	issueKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]+-\d+)\b`)
	urlPattern      = regexp.MustCompile(`https?://[^\s/]+`)
)

// trailingPunct is stripped from hosts found at the end of a sentence or
// inside parentheses.
const trailingPunct = `).,;:!?'"]>}`

// PromptText extracts the prompt from hook input. JSON input is searched
// for a "prompt", "content" or "message" field, in that order; anything
// else is used verbatim.
func PromptText(input []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(input, &payload); err != nil {
		return string(input)
	}
	for _, field := range []string{"prompt", "content", "message"} {
		if s, ok := payload[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// IssueKeys returns the unique issue keys in text, sorted.
func IssueKeys(text string) []string {
	seen := make(map[string]bool)
	for _, m := range issueKeyPattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Hosts returns the unique "scheme://host" origins of the URLs in text, in
// order of appearance.
func Hosts(text string) []string {
	var hosts []string
	seen := make(map[string]bool)
	for _, raw := range urlPattern.FindAllString(text, -1) {
		origin := netloc.Normalize(strings.TrimRight(raw, trailingPunct))
		if origin == "" || seen[origin] {
			continue
		}
		seen[origin] = true
		hosts = append(hosts, origin)
	}
	return hosts
}

// Suggest names the profile that serves the given hosts or issue keys.
// Hosts are tried before project prefixes. Unlike profile resolution, an
// ambiguous match is not an error here: it simply yields no suggestion.
func Suggest(loader profile.Loader, keys, hosts []string) string {
	doc, err := loader.Load()
	if err != nil || doc == nil {
		return ""
	}

	for _, host := range hosts {
		if name, ok := unique(doc, func(p profile.Profile) bool { return netloc.SameHost(p.URL, host) }); ok {
			return name
		}
	}
	for _, key := range keys {
		prefix, ok := profile.ParseIssueKey(key)
		if !ok {
			continue
		}
		if name, ok := unique(doc, func(p profile.Profile) bool { return p.HasProject(prefix) }); ok {
			return name
		}
	}
	return ""
}

func unique(doc *profile.Document, match func(profile.Profile) bool) (string, bool) {
	var found []string
	for _, name := range doc.Names() {
		if p, _ := doc.Get(name); match(p) {
			found = append(found, name)
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}
