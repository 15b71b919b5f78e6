package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "List agile boards and their issues",
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agile boards",
	Long: `List agile boards, optionally narrowed to a project or board type. The
project key also selects the profile when no --profile is given.

Example:
  jiractl board list
  jiractl board list --project WEB --type scrum`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		boardType, _ := cmd.Flags().GetString("type")
		if boardType != "" && boardType != "scrum" && boardType != "kanban" {
			return fmt.Errorf("invalid --type %q: must be scrum or kanban", boardType)
		}

		boards, err := tracker(cmd).WithProject(project).Boards(cmd.Context(), jira.BoardFilter{Project: project, Type: boardType})
		if err != nil {
			return err
		}

		out := make([]models.Board, 0, len(boards))
		for _, b := range boards {
			out = append(out, models.Board{ID: b.ID, Name: b.Name, Type: b.Type})
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(out)
		case output.Quiet:
			for _, b := range out {
				p.Line("%d", b.ID)
			}
		default:
			if len(out) == 0 {
				p.Line("No boards found")
				return nil
			}
			rows := make([][]string, 0, len(out))
			for _, b := range out {
				rows = append(rows, []string{strconv.Itoa(b.ID), b.Name, b.Type})
			}
			p.Table([]string{"ID", "Name", "Type"}, rows)
		}
		return nil
	},
}

var boardIssuesCmd = &cobra.Command{
	Use:   "issues BOARD_ID",
	Short: "List the issues on a board",
	Long: `List the issues on an agile board.

Example:
  jiractl board issues 42
  jiractl board issues 42 --jql "status = 'In Progress'" --max-results 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, err := idArg("board", args[0])
		if err != nil {
			return err
		}
		jql, _ := cmd.Flags().GetString("jql")
		maxResults, _ := cmd.Flags().GetInt("max-results")
		if maxResults < 1 {
			return fmt.Errorf("--max-results must be positive")
		}

		client := tracker(cmd)
		issues, err := client.BoardIssues(cmd.Context(), boardID, jql, maxResults)
		if err != nil {
			return err
		}
		if p := printer(cmd); len(issues) == 0 && p.Mode == output.Human {
			p.Line("No issues on board %d", boardID)
			return nil
		}
		return printIssues(cmd, issues, client.BaseURL(), []string{"key", "summary", "status", "assignee"})
	},
}

func init() {
	boardListCmd.Flags().StringP("project", "p", "", "Project key or id")
	boardListCmd.Flags().StringP("type", "t", "", "Board type: scrum or kanban")
	boardIssuesCmd.Flags().String("jql", "", "Additional JQL filter")
	boardIssuesCmd.Flags().IntP("max-results", "n", 50, "Maximum number of issues to return")

	boardCmd.AddCommand(boardListCmd, boardIssuesCmd)
	rootCmd.AddCommand(boardCmd)
}

// idArg parses a positive numeric board or sprint id.
func idArg(what, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s id %q: expected a positive number", what, arg)
	}
	return id, nil
}

// printIssues prints issues as JSON, keys, or a table with the given
// columns.
func printIssues(cmd *cobra.Command, issues []jira.Issue, baseURL string, columns []string) error {
	tickets := make([]models.Ticket, 0, len(issues))
	for i := range issues {
		tickets = append(tickets, models.TicketFromIssue(&issues[i], baseURL))
	}

	p := printer(cmd)
	switch p.Mode {
	case output.JSON:
		return p.JSON(tickets)
	case output.Quiet:
		for _, t := range tickets {
			p.Line("%s", t.Key)
		}
		return nil
	}

	headers := make([]string, 0, len(columns))
	for _, c := range columns {
		headers = append(headers, columnTitle(c))
	}
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, ticketColumn(t, c))
		}
		rows = append(rows, row)
	}
	p.Table(headers, rows)
	return nil
}

func columnTitle(field string) string {
	switch field {
	case "issuetype":
		return "Type"
	case "":
		return ""
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// ticketColumn returns the table cell for field, or "-" for fields the
// printable view does not carry.
func ticketColumn(t models.Ticket, field string) string {
	var v string
	switch field {
	case "key":
		v = t.Key
	case "summary":
		v = output.Truncate(t.Summary, 40)
	case "status":
		v = t.Status
	case "assignee":
		v = t.Assignee
	case "reporter":
		v = t.Reporter
	case "priority":
		v = t.Priority
	case "type", "issuetype":
		v = t.Type
	case "labels":
		v = strings.Join(t.Labels, ", ")
	}
	if v == "" {
		return "-"
	}
	return v
}
