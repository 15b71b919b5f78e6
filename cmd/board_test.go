package cmd

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardListResolvesProfileFromProject(t *testing.T) {
	srv := newTrackerServer(t)
	setupProfiles(t, srv)

	out, _, err := execute(t, "", "board", "list", "--project", "WEB", "--type", "scrum")
	require.NoError(t, err)
	assert.Contains(t, out, "WEB board")

	query, err := url.ParseQuery(srv.lastQuery("/rest/agile/1.0/board"))
	require.NoError(t, err)
	assert.Equal(t, "WEB", query.Get("projectKeyOrId"))
	assert.Equal(t, "scrum", query.Get("type"))

	out, _, err = execute(t, "", "board", "list", "-p", "WEB", "-q")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestBoardListRejectsUnknownType(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "board", "list", "--type", "team")
	assert.ErrorContains(t, err, "invalid --type")
}

func TestBoardIssues(t *testing.T) {
	srv := newTrackerServer(t)
	setupProfiles(t, srv)

	out, _, err := execute(t, "", "board", "issues", "42", "--jql", "status = Open", "-n", "10", "-P", "web")
	require.NoError(t, err)
	assert.Contains(t, out, "WEB-1")
	assert.Contains(t, out, "Fix login")

	query, err := url.ParseQuery(srv.lastQuery("/rest/agile/1.0/board/42/issue"))
	require.NoError(t, err)
	assert.Equal(t, "status = Open", query.Get("jql"))
	assert.Equal(t, "10", query.Get("maxResults"))
}

func TestIDArg(t *testing.T) {
	id, err := idArg("board", "42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, arg := range []string{"0", "-3", "WEB", ""} {
		_, err := idArg("sprint", arg)
		assert.ErrorContains(t, err, "invalid sprint id", arg)
	}
}

func TestSprintList(t *testing.T) {
	srv := newTrackerServer(t)
	setupProfiles(t, srv)

	out, _, err := execute(t, "", "sprint", "list", "42", "-P", "web", "--json")
	require.NoError(t, err)

	var sprints []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &sprints))
	require.Len(t, sprints, 2)
	assert.Equal(t, "Sprint 7", sprints[0]["name"])
	assert.Equal(t, "future", sprints[1]["state"])

	out, _, err = execute(t, "", "sprint", "list", "42", "--state", "active", "-P", "web", "-q")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
	assert.Contains(t, srv.lastQuery("/rest/agile/1.0/board/42/sprint"), "state=active")

	_, _, err = execute(t, "", "sprint", "list", "42", "--state", "open", "-P", "web")
	assert.ErrorContains(t, err, "invalid --state")
}

func TestSprintIssues(t *testing.T) {
	srv := newTrackerServer(t)
	setupProfiles(t, srv)

	out, _, err := execute(t, "", "sprint", "issues", "7", "--fields", "summary,key,priority", "-P", "web")
	require.NoError(t, err)
	assert.Contains(t, out, "Priority")
	assert.Contains(t, out, "High")
	assert.NotContains(t, out, "Status")

	out, _, err = execute(t, "", "sprint", "issues", "7", "-P", "web", "-q")
	require.NoError(t, err)
	assert.Equal(t, "WEB-1\nWEB-2\n", out)
}

func TestSprintCurrent(t *testing.T) {
	srv := newTrackerServer(t)
	setupProfiles(t, srv)

	out, _, err := execute(t, "", "sprint", "current", "42", "-P", "web")
	require.NoError(t, err)
	assert.Contains(t, out, "Name: Sprint 7")
	assert.Contains(t, out, "Start: 2026-03-02")
	assert.Contains(t, out, "End: 2026-03-16")
}
