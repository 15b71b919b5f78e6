// Package jira builds authenticated tracker clients with the network
// policies every request must obey: a fixed timeout, bounded retries of
// idempotent requests, same-host redirects without credentials, challenge
// detection and sanitized errors.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/cenkalti/backoff/v4"
	"github.com/danielolaszy/jiractl/internal/config"
	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/profile"
	"golang.org/x/oauth2"
)

// DefaultTimeout applies to every HTTP request a client makes.
const DefaultTimeout = 30 * time.Second

// Tracker entities returned by Client.
type (
	Issue         = jira.Issue
	Comment       = jira.Comment
	WorklogRecord = jira.WorklogRecord
	Transition    = jira.Transition
	Status        = jira.Status
	User          = jira.User
	Project       = jira.Project
	IssueLinkType = jira.IssueLinkType
	Field         = jira.Field
	Board         = jira.Board
	Sprint        = jira.Sprint
)

// Options tunes client construction. The zero value gives the production
// policy.
type Options struct {
	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
	// Transport is the innermost round tripper. Nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
	// MaxRetries overrides DefaultMaxRetries. Negative disables retries.
	MaxRetries int
	// BackOff overrides DefaultBackOff.
	BackOff func() backoff.BackOff
}

// Client talks to one tracker instance.
type Client struct {
	api  *jira.Client
	http *http.Client
	cfg  *config.Config
}

// NewClient validates cfg and returns a client whose every request goes
// through the network policy chain.
func NewClient(cfg *config.Config, opts Options) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(cfg, opts)
	api, err := jira.NewClient(httpClient, cfg.URL)
	if err != nil {
		return nil, SanitizeError(fmt.Errorf("failed to create tracker client: %w", err))
	}

	logging.Debug("tracker client created",
		"url", cfg.URL,
		"auth", cfg.Auth,
		"profile", cfg.Profile,
		"cloud", cfg.IsCloud())

	return &Client{api: api, http: httpClient, cfg: cfg}, nil
}

func newHTTPClient(cfg *config.Config, opts Options) *http.Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	authed := base
	switch cfg.Auth {
	case profile.AuthPAT:
		authed = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.PersonalToken, TokenType: "Bearer"}),
			Base:   base,
		}
	case profile.AuthBasic:
		authed = &jira.BasicAuthTransport{Username: cfg.Username, Password: cfg.APIToken, Transport: base}
	}

	maxRetries := opts.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	newBackOff := opts.BackOff
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: redirectPolicy(cfg.URL),
		Transport: &retryTransport{
			next: &challengeTransport{
				next:    &credentialTransport{authed: authed, base: base},
				baseURL: cfg.URL,
			},
			maxRetries: maxRetries,
			newBackOff: newBackOff,
		},
	}
}

// Config returns the settings the client was built from.
func (c *Client) Config() *config.Config { return c.cfg }

// BaseURL returns the configured tracker URL.
func (c *Client) BaseURL() string { return c.cfg.URL }

// wrap classifies err and sanitizes its message.
func wrap(op string, resp *jira.Response, err error) error {
	if err == nil {
		return nil
	}

	var challenge *ChallengeError
	if errors.As(err, &challenge) {
		return challenge
	}
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return fmt.Errorf("%s: %w", op, rejection)
	}

	if resp != nil && resp.Response != nil && resp.StatusCode < 400 {
		return fmt.Errorf("%s: HTTP %d with content type %q: %w",
			op, resp.StatusCode, resp.Header.Get("Content-Type"), ErrUnexpectedResponse)
	}

	if resp != nil && resp.Response != nil {
		msg := ""
		var apiErr *jira.Error
		if errors.As(err, &apiErr) {
			switch {
			case len(apiErr.ErrorMessages) > 0:
				msg = strings.Join(apiErr.ErrorMessages, "; ")
			case len(apiErr.Errors) > 0:
				parts := make([]string, 0, len(apiErr.Errors))
				for field, m := range apiErr.Errors {
					parts = append(parts, field+": "+m)
				}
				msg = strings.Join(parts, "; ")
			}
		}
		return SanitizeError(fmt.Errorf("%s: %w", op, &StatusError{StatusCode: resp.StatusCode, Message: msg}))
	}

	return SanitizeError(fmt.Errorf("%s: %w: %w", op, ErrConnectivity, err))
}

// Myself returns the authenticated user.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	user, resp, err := c.api.User.GetSelfWithContext(ctx)
	if err != nil {
		return nil, wrap("failed to get current user", resp, err)
	}
	return user, nil
}

// GetIssue fetches an issue. An empty fields list returns the server's
// default field set.
func (c *Client) GetIssue(ctx context.Context, key string, fields []string) (*Issue, error) {
	var opts *jira.GetQueryOptions
	if len(fields) > 0 {
		opts = &jira.GetQueryOptions{Fields: strings.Join(fields, ",")}
	}
	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, opts)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get issue %s", key), resp, err)
	}
	return issue, nil
}

// SearchOptions limits a JQL search.
type SearchOptions struct {
	MaxResults int
	Fields     []string
}

// Search runs a JQL query and returns the matching issues together with the
// server-reported total.
func (c *Client) Search(ctx context.Context, jql string, opts SearchOptions) ([]Issue, int, error) {
	issues, resp, err := c.api.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
		MaxResults: opts.MaxResults,
		Fields:     opts.Fields,
	})
	if err != nil {
		return nil, 0, wrap("search failed", resp, err)
	}
	total := len(issues)
	if resp != nil && resp.Total > total {
		total = resp.Total
	}
	return issues, total, nil
}

// UpdateIssue sets the given fields on an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	resp, err := c.api.Issue.UpdateIssueWithContext(ctx, key, map[string]interface{}{"fields": fields})
	return wrap(fmt.Sprintf("failed to update issue %s", key), resp, err)
}

// AddComment posts a comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, body string) (*Comment, error) {
	comment, resp, err := c.api.Issue.AddCommentWithContext(ctx, key, &jira.Comment{Body: body})
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to add comment to %s", key), resp, err)
	}
	return comment, nil
}

// Comments lists the comments of an issue.
func (c *Client) Comments(ctx context.Context, key string) ([]*Comment, error) {
	issue, err := c.GetIssue(ctx, key, []string{"comment"})
	if err != nil {
		return nil, err
	}
	if issue.Fields == nil || issue.Fields.Comments == nil {
		return nil, nil
	}
	return issue.Fields.Comments.Comments, nil
}

// WorklogInput describes a worklog entry to create.
type WorklogInput struct {
	// TimeSpent uses tracker duration notation, e.g. "2h 30m".
	TimeSpent string
	Comment   string
	// Started defaults to the server's current time when zero.
	Started time.Time
}

// AddWorklog records time spent on an issue.
func (c *Client) AddWorklog(ctx context.Context, key string, in WorklogInput) (*WorklogRecord, error) {
	record := &jira.WorklogRecord{TimeSpent: in.TimeSpent, Comment: in.Comment}
	if !in.Started.IsZero() {
		started := jira.Time(in.Started)
		record.Started = &started
	}
	out, resp, err := c.api.Issue.AddWorklogRecordWithContext(ctx, key, record)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to add worklog to %s", key), resp, err)
	}
	return out, nil
}

// Worklogs lists the worklog entries of an issue.
func (c *Client) Worklogs(ctx context.Context, key string) ([]WorklogRecord, error) {
	logs, resp, err := c.api.Issue.GetWorklogsWithContext(ctx, key)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get worklogs for %s", key), resp, err)
	}
	return logs.Worklogs, nil
}

// Transitions lists the workflow transitions available on an issue.
func (c *Client) Transitions(ctx context.Context, key string) ([]Transition, error) {
	transitions, resp, err := c.api.Issue.GetTransitionsWithContext(ctx, key)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get transitions for %s", key), resp, err)
	}
	return transitions, nil
}

// DoTransition moves an issue through a transition, optionally adding a
// comment in the same request.
func (c *Client) DoTransition(ctx context.Context, key, transitionID, comment string) error {
	payload := map[string]any{
		"transition": map[string]any{"id": transitionID},
	}
	if comment != "" {
		payload["update"] = map[string]any{
			"comment": []any{map[string]any{"add": map[string]any{"body": comment}}},
		}
	}
	resp, err := c.api.Issue.DoTransitionWithPayloadWithContext(ctx, key, payload)
	return wrap(fmt.Sprintf("failed to transition %s", key), resp, err)
}

// CreateIssue creates an issue from a raw field map and returns the
// created issue's id and key.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (*Issue, error) {
	created := new(jira.Issue)
	resp, err := c.do(ctx, http.MethodPost, "rest/api/2/issue", map[string]any{"fields": fields}, created)
	if err != nil {
		return nil, wrap("failed to create issue", resp, err)
	}
	return created, nil
}

// LinkIssues links from to to with the named link type. from is the
// outward side ("from blocks to").
func (c *Client) LinkIssues(ctx context.Context, from, to, linkType string) error {
	resp, err := c.api.Issue.AddLinkWithContext(ctx, &jira.IssueLink{
		Type:         jira.IssueLinkType{Name: linkType},
		OutwardIssue: &jira.Issue{Key: from},
		InwardIssue:  &jira.Issue{Key: to},
	})
	return wrap(fmt.Sprintf("failed to link %s to %s", from, to), resp, err)
}

// LinkTypes lists the issue link types configured on the instance.
func (c *Client) LinkTypes(ctx context.Context) ([]IssueLinkType, error) {
	// The endpoint wraps the list in an object.
	var result struct {
		IssueLinkTypes []jira.IssueLinkType `json:"issueLinkTypes"`
	}
	resp, err := c.do(ctx, http.MethodGet, "rest/api/2/issueLinkType", nil, &result)
	if err != nil {
		return nil, wrap("failed to get link types", resp, err)
	}
	return result.IssueLinkTypes, nil
}

// GetUser looks a user up by account id, username or email. Account ids
// are tried directly; other identifiers go through a username lookup and
// then the user search.
func (c *Client) GetUser(ctx context.Context, identifier string) (*User, error) {
	op := fmt.Sprintf("failed to get user %s", identifier)

	if IsAccountID(identifier) {
		user, resp, err := c.api.User.GetWithContext(ctx, url.QueryEscape(identifier))
		if err == nil {
			return user, nil
		}
		if !lookupMiss(resp) {
			return nil, wrap(op, resp, err)
		}
	}

	user := new(User)
	resp, err := c.do(ctx, http.MethodGet, "rest/api/2/user?username="+url.QueryEscape(identifier), nil, user)
	if err == nil {
		return user, nil
	}
	if !lookupMiss(resp) {
		return nil, wrap(op, resp, err)
	}

	query := url.QueryEscape(identifier)
	var users []User
	if c.cfg.IsCloud() {
		users, resp, err = c.api.User.FindWithContext(ctx, query, jira.WithMaxResults(1))
	} else {
		users, resp, err = c.api.User.FindWithContext(ctx, query, jira.WithMaxResults(1), jira.WithUsername(query))
	}
	if err != nil {
		return nil, wrap(op, resp, err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found: %s", identifier)
	}
	return &users[0], nil
}

// lookupMiss reports whether a lookup failed because the identifier does
// not apply to that endpoint.
func lookupMiss(resp *jira.Response) bool {
	if resp == nil || resp.Response == nil {
		return false
	}
	return resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest
}

// Fields lists every system and custom field.
func (c *Client) Fields(ctx context.Context) ([]Field, error) {
	fields, resp, err := c.api.Field.GetListWithContext(ctx)
	if err != nil {
		return nil, wrap("failed to get fields", resp, err)
	}
	return fields, nil
}

// do sends a request built by go-jira and decodes the response into v.
func (c *Client) do(ctx context.Context, method, path string, body, v any) (*jira.Response, error) {
	req, err := c.api.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.api.Do(req, v)
	if err != nil {
		return resp, jira.NewJiraError(resp, err)
	}
	return resp, nil
}

// GetProject fetches a project by key.
func (c *Client) GetProject(ctx context.Context, key string) (*Project, error) {
	project, resp, err := c.api.Project.GetWithContext(ctx, key)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get project %s", key), resp, err)
	}
	return project, nil
}

// Ping checks that the tracker base URL answers. It returns the HTTP status
// of a HEAD request, falling back to GET when HEAD is not allowed. Any HTTP
// response counts as reachable; only transport failures return an error.
func (c *Client) Ping(ctx context.Context) (int, error) {
	return ping(ctx, c.http, c.cfg.URL)
}

// PingURL requests baseURL without credentials, under the same network policy
// as an authenticated client.
func PingURL(ctx context.Context, baseURL string, opts Options) (int, error) {
	return ping(ctx, newHTTPClient(&config.Config{URL: baseURL}, opts), baseURL)
}

func ping(ctx context.Context, hc *http.Client, baseURL string) (int, error) {
	status, err := sendPing(ctx, hc, http.MethodHead, baseURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = sendPing(ctx, hc, http.MethodGet, baseURL)
	}
	return status, err
}

func sendPing(ctx context.Context, hc *http.Client, method, baseURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, baseURL, nil)
	if err != nil {
		return 0, SanitizeError(err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, wrap("server unreachable", nil, err)
	}
	drain(resp)
	return resp.StatusCode, nil
}
