package jira

import "regexp"

var (
	cloudAccountID  = regexp.MustCompile(`^[0-9a-fA-F]{1,10}:[0-9a-fA-F-]{8,}$`)
	legacyAccountID = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// IsAccountID reports whether s looks like a Cloud account id, either the
// "prefix:uuid" form or a 24 character hex id.
func IsAccountID(s string) bool {
	return cloudAccountID.MatchString(s) || legacyAccountID.MatchString(s)
}

// AssigneeField returns the assignee field value for user. Account ids are
// sent as accountId, anything else as a username. An empty user or "none"
// unassigns the issue.
func AssigneeField(user string) map[string]any {
	switch {
	case user == "" || user == "none":
		return nil
	case IsAccountID(user):
		return map[string]any{"accountId": user}
	default:
		return map[string]any{"name": user}
	}
}
