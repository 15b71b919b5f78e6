package jira

import (
	"context"
	"io"
	"sync"

	"github.com/danielolaszy/jiractl/internal/config"
	"github.com/danielolaszy/jiractl/internal/netloc"
)

// Tracker is the set of operations commands perform against a tracker.
type Tracker interface {
	Myself(ctx context.Context) (*User, error)
	GetIssue(ctx context.Context, key string, fields []string) (*Issue, error)
	Search(ctx context.Context, jql string, opts SearchOptions) ([]Issue, int, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]any) error
	AddComment(ctx context.Context, key, body string) (*Comment, error)
	Comments(ctx context.Context, key string) ([]*Comment, error)
	AddWorklog(ctx context.Context, key string, in WorklogInput) (*WorklogRecord, error)
	Worklogs(ctx context.Context, key string) ([]WorklogRecord, error)
	Transitions(ctx context.Context, key string) ([]Transition, error)
	DoTransition(ctx context.Context, key, transitionID, comment string) error
	GetProject(ctx context.Context, key string) (*Project, error)
	CreateIssue(ctx context.Context, fields map[string]any) (*Issue, error)
	LinkIssues(ctx context.Context, from, to, linkType string) error
	LinkTypes(ctx context.Context) ([]IssueLinkType, error)
	GetUser(ctx context.Context, identifier string) (*User, error)
	Fields(ctx context.Context) ([]Field, error)
	Boards(ctx context.Context, filter BoardFilter) ([]Board, error)
	BoardIssues(ctx context.Context, boardID int, jql string, maxResults int) ([]Issue, error)
	Sprints(ctx context.Context, boardID int, state string) ([]Sprint, error)
	SprintIssues(ctx context.Context, sprintID int) ([]Issue, error)
	Download(ctx context.Context, target string, w io.Writer) (int64, error)
	Ping(ctx context.Context) (int, error)
	BaseURL() string
}

var _ Tracker = (*Client)(nil)
var _ Tracker = (*LazyClient)(nil)

// BuildFunc resolves settings for the given hints and builds a tracker.
type BuildFunc func(opts config.Options) (Tracker, error)

// DefaultBuild loads settings with config.Load and builds a Client.
func DefaultBuild(opts config.Options) (Tracker, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg, Options{})
}

// LazyClient defers profile resolution and client construction until the
// first operation, so commands can attach an issue key or URL hint after
// the handle exists. Once built, hints are ignored and every operation
// delegates to the same client.
type LazyClient struct {
	mu       sync.Mutex
	opts     config.Options
	explicit bool // opts.URL was supplied directly rather than inferred
	build    BuildFunc
	client   Tracker
}

// NewLazyClient returns an uninitialized handle. build may be nil to use
// DefaultBuild.
func NewLazyClient(opts config.Options, build BuildFunc) *LazyClient {
	if build == nil {
		build = DefaultBuild
	}
	return &LazyClient{opts: opts, explicit: opts.URL != "", build: build}
}

// WithHints records an issue key and URL for resolution. A URL-shaped
// issue key also serves as the URL hint unless a URL was supplied
// explicitly. Calls after the client is built have no effect.
func (l *LazyClient) WithHints(issueKey, url string) *LazyClient {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l
	}
	if issueKey != "" {
		l.opts.IssueKey = issueKey
		if netloc.IsURL(issueKey) && !l.explicit {
			l.opts.URL = issueKey
		}
	}
	if url != "" {
		l.opts.URL = url
		l.explicit = true
	}
	return l
}

// WithProject records a project key for resolution when no issue key hint
// is present. Calls after the client is built have no effect.
func (l *LazyClient) WithProject(project string) *LazyClient {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil && project != "" {
		l.opts.Project = project
	}
	return l
}

// Initialized reports whether the client has been built.
func (l *LazyClient) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client != nil
}

// Hints returns the options the client will be (or was) built from.
func (l *LazyClient) Hints() config.Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

// Ensure builds the client if needed. A failed build leaves the handle
// uninitialized.
func (l *LazyClient) Ensure() (Tracker, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}
	client, err := l.build(l.opts)
	if err != nil {
		return nil, err
	}
	l.client = client
	return client, nil
}

func (l *LazyClient) Myself(ctx context.Context) (*User, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Myself(ctx)
}

func (l *LazyClient) GetIssue(ctx context.Context, key string, fields []string) (*Issue, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.GetIssue(ctx, key, fields)
}

func (l *LazyClient) Search(ctx context.Context, jql string, opts SearchOptions) ([]Issue, int, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, 0, err
	}
	return c.Search(ctx, jql, opts)
}

func (l *LazyClient) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	c, err := l.Ensure()
	if err != nil {
		return err
	}
	return c.UpdateIssue(ctx, key, fields)
}

func (l *LazyClient) AddComment(ctx context.Context, key, body string) (*Comment, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.AddComment(ctx, key, body)
}

func (l *LazyClient) Comments(ctx context.Context, key string) ([]*Comment, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Comments(ctx, key)
}

func (l *LazyClient) AddWorklog(ctx context.Context, key string, in WorklogInput) (*WorklogRecord, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.AddWorklog(ctx, key, in)
}

func (l *LazyClient) Worklogs(ctx context.Context, key string) ([]WorklogRecord, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Worklogs(ctx, key)
}

func (l *LazyClient) Transitions(ctx context.Context, key string) ([]Transition, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Transitions(ctx, key)
}

func (l *LazyClient) DoTransition(ctx context.Context, key, transitionID, comment string) error {
	c, err := l.Ensure()
	if err != nil {
		return err
	}
	return c.DoTransition(ctx, key, transitionID, comment)
}

func (l *LazyClient) GetProject(ctx context.Context, key string) (*Project, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.GetProject(ctx, key)
}

func (l *LazyClient) CreateIssue(ctx context.Context, fields map[string]any) (*Issue, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.CreateIssue(ctx, fields)
}

func (l *LazyClient) LinkIssues(ctx context.Context, from, to, linkType string) error {
	c, err := l.Ensure()
	if err != nil {
		return err
	}
	return c.LinkIssues(ctx, from, to, linkType)
}

func (l *LazyClient) LinkTypes(ctx context.Context) ([]IssueLinkType, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.LinkTypes(ctx)
}

func (l *LazyClient) GetUser(ctx context.Context, identifier string) (*User, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.GetUser(ctx, identifier)
}

func (l *LazyClient) Fields(ctx context.Context) ([]Field, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Fields(ctx)
}

func (l *LazyClient) Boards(ctx context.Context, filter BoardFilter) ([]Board, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Boards(ctx, filter)
}

func (l *LazyClient) BoardIssues(ctx context.Context, boardID int, jql string, maxResults int) ([]Issue, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.BoardIssues(ctx, boardID, jql, maxResults)
}

func (l *LazyClient) Sprints(ctx context.Context, boardID int, state string) ([]Sprint, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.Sprints(ctx, boardID, state)
}

func (l *LazyClient) SprintIssues(ctx context.Context, sprintID int) ([]Issue, error) {
	c, err := l.Ensure()
	if err != nil {
		return nil, err
	}
	return c.SprintIssues(ctx, sprintID)
}

func (l *LazyClient) Download(ctx context.Context, target string, w io.Writer) (int64, error) {
	c, err := l.Ensure()
	if err != nil {
		return 0, err
	}
	return c.Download(ctx, target, w)
}

func (l *LazyClient) Ping(ctx context.Context) (int, error) {
	c, err := l.Ensure()
	if err != nil {
		return 0, err
	}
	return c.Ping(ctx)
}

// BaseURL returns the built client's URL, building it if necessary. It
// returns "" when the build fails.
func (l *LazyClient) BaseURL() string {
	c, err := l.Ensure()
	if err != nil {
		return ""
	}
	return c.BaseURL()
}
