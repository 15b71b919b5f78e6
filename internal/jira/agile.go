package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	jira "github.com/andygrunwald/go-jira"
)

// BoardFilter narrows a board listing.
type BoardFilter struct {
	// Project is a project key or id.
	Project string
	// Type is "scrum" or "kanban".
	Type string
}

// Boards lists the agile boards visible to the user.
func (c *Client) Boards(ctx context.Context, filter BoardFilter) ([]Board, error) {
	list, resp, err := c.api.Board.GetAllBoardsWithContext(ctx, &jira.BoardListOptions{
		BoardType:      filter.Type,
		ProjectKeyOrID: filter.Project,
	})
	if err != nil {
		return nil, wrap("failed to list boards", resp, err)
	}
	return list.Values, nil
}

type boardIssues struct {
	Total  int          `json:"total"`
	Issues []jira.Issue `json:"issues"`
}

// BoardIssues returns the issues on a board, optionally narrowed by JQL.
func (c *Client) BoardIssues(ctx context.Context, boardID int, jql string, maxResults int) ([]Issue, error) {
	query := url.Values{}
	if maxResults > 0 {
		query.Set("maxResults", fmt.Sprint(maxResults))
	}
	if jql != "" {
		query.Set("jql", jql)
	}
	path := fmt.Sprintf("rest/agile/1.0/board/%d/issue", boardID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	result := new(boardIssues)
	resp, err := c.do(ctx, http.MethodGet, path, nil, result)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get issues for board %d", boardID), resp, err)
	}
	return result.Issues, nil
}

// Sprints lists a board's sprints. state is "active", "future", "closed"
// or empty for all.
func (c *Client) Sprints(ctx context.Context, boardID int, state string) ([]Sprint, error) {
	list, resp, err := c.api.Board.GetAllSprintsWithOptionsWithContext(ctx, boardID, &jira.GetAllSprintsOptions{State: state})
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get sprints for board %d", boardID), resp, err)
	}
	return list.Values, nil
}

// SprintIssues returns the issues in a sprint, ordered by rank.
func (c *Client) SprintIssues(ctx context.Context, sprintID int) ([]Issue, error) {
	issues, resp, err := c.api.Sprint.GetIssuesForSprintWithContext(ctx, sprintID)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to get issues for sprint %d", sprintID), resp, err)
	}
	return issues, nil
}
