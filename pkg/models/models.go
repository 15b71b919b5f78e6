// Package models defines the flattened views of tracker entities that
// commands print as tables or JSON.
package models

import (
	"time"

	jira "github.com/andygrunwald/go-jira"
)

// Ticket is the printable view of an issue.
type Ticket struct {
	// Key is the full issue identifier (e.g., "WEB-1381")
	Key string `json:"key"`

	// Summary is the issue's one-line title
	Summary string `json:"summary"`

	// Status is the workflow status name (e.g., "In Progress")
	Status string `json:"status,omitempty"`

	// Type is the issue type name (e.g., "Bug", "Story")
	Type string `json:"type,omitempty"`

	// Priority is the priority name
	Priority string `json:"priority,omitempty"`

	// Assignee is the assignee's display name
	Assignee string `json:"assignee,omitempty"`

	// Reporter is the reporter's display name
	Reporter string `json:"reporter,omitempty"`

	// Labels lists the issue labels
	Labels []string `json:"labels,omitempty"`

	// Description is the full body text
	Description string `json:"description,omitempty"`

	// URL is the browse link for the issue
	URL string `json:"url,omitempty"`
}

// TicketFromIssue flattens an issue. baseURL, when set, is used to build the
// browse link.
func TicketFromIssue(issue *jira.Issue, baseURL string) Ticket {
	t := Ticket{Key: issue.Key}
	if baseURL != "" && issue.Key != "" {
		t.URL = baseURL + "/browse/" + issue.Key
	}
	f := issue.Fields
	if f == nil {
		return t
	}
	t.Summary = f.Summary
	t.Type = f.Type.Name
	t.Labels = f.Labels
	t.Description = f.Description
	if f.Status != nil {
		t.Status = f.Status.Name
	}
	if f.Priority != nil {
		t.Priority = f.Priority.Name
	}
	t.Assignee = userName(f.Assignee)
	t.Reporter = userName(f.Reporter)
	return t
}

// Comment is the printable view of an issue comment.
type Comment struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Created string `json:"created,omitempty"`
	Body    string `json:"body"`
}

// CommentFromAPI flattens a comment.
func CommentFromAPI(c *jira.Comment) Comment {
	return Comment{ID: c.ID, Author: userName(&c.Author), Created: c.Created, Body: c.Body}
}

// Worklog is the printable view of a worklog entry.
type Worklog struct {
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	TimeSpent string     `json:"timeSpent"`
	Started   *time.Time `json:"started,omitempty"`
	Comment   string     `json:"comment,omitempty"`
}

// WorklogFromAPI flattens a worklog record.
func WorklogFromAPI(w *jira.WorklogRecord) Worklog {
	out := Worklog{ID: w.ID, Author: userName(w.Author), TimeSpent: w.TimeSpent, Comment: w.Comment}
	if w.Started != nil {
		started := time.Time(*w.Started)
		out.Started = &started
	}
	return out
}

// Transition is the printable view of an available workflow transition.
type Transition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ToStatus string `json:"to"`
}

// TransitionFromAPI flattens a transition.
func TransitionFromAPI(t jira.Transition) Transition {
	return Transition{ID: t.ID, Name: t.Name, ToStatus: t.To.Name}
}

// ProfileStatus reports the connectivity of one stored profile.
type ProfileStatus struct {
	Profile string `json:"profile"`
	URL     string `json:"url"`
	Default bool   `json:"default"`
	// Status is one of "OK", "HTTP nnn", "UNREACHABLE" or "CONFIG ERROR"
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// User is the printable view of a tracker account.
type User struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	Username  string `json:"username,omitempty"`
	Active    bool   `json:"active"`
	TimeZone  string `json:"timeZone,omitempty"`
}

// UserFromAPI flattens a user.
func UserFromAPI(u *jira.User) User {
	return User{
		Name:      userName(u),
		Email:     u.EmailAddress,
		AccountID: u.AccountID,
		Username:  u.Name,
		Active:    u.Active,
		TimeZone:  u.TimeZone,
	}
}

// ID returns the account id on Cloud and the username on Server.
func (u User) ID() string {
	if u.AccountID != "" {
		return u.AccountID
	}
	return u.Username
}

// LinkType is the printable view of an issue link type.
type LinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// FieldInfo is the printable view of a field definition.
type FieldInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Custom bool   `json:"custom"`
}

// FieldFromAPI flattens a field definition.
func FieldFromAPI(f jira.Field) FieldInfo {
	return FieldInfo{ID: f.ID, Name: f.Name, Type: f.Schema.Type, Custom: f.Custom}
}

// Board is the printable view of an agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Sprint is the printable view of a sprint.
type Sprint struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
	// Start and End are dates in YYYY-MM-DD form, empty when unscheduled.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// SprintFromAPI flattens a sprint.
func SprintFromAPI(s jira.Sprint) Sprint {
	return Sprint{ID: s.ID, Name: s.Name, State: s.State, Start: date(s.StartDate), End: date(s.EndDate)}
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func userName(u *jira.User) string {
	if u == nil {
		return ""
	}
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Name != "":
		return u.Name
	default:
		return u.AccountID
	}
}
