package cmd

import (
	"fmt"

	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search JQL",
	Short: "Search issues with JQL",
	Long: `Search issues with a JQL query.

Example:
  jiractl search "project = WEB AND status = 'In Progress'"
  jiractl search "assignee = currentUser()" --output keys`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxResults, err := cmd.Flags().GetInt("max-results")
		if err != nil {
			return err
		}
		if maxResults < 1 {
			return fmt.Errorf("--max-results must be positive")
		}
		fields, _ := cmd.Flags().GetString("fields")
		format, _ := cmd.Flags().GetString("output")

		p := printer(cmd)
		switch {
		case p.Mode == output.JSON:
			format = "json"
		case p.Mode == output.Quiet:
			format = "keys"
		}
		if format != "table" && format != "json" && format != "keys" {
			return fmt.Errorf("invalid --output %q: must be table, json or keys", format)
		}

		client := tracker(cmd)
		issues, total, err := client.Search(cmd.Context(), args[0], jira.SearchOptions{
			MaxResults: maxResults,
			Fields:     splitList(fields),
		})
		if err != nil {
			return err
		}

		tickets := make([]models.Ticket, 0, len(issues))
		for i := range issues {
			tickets = append(tickets, models.TicketFromIssue(&issues[i], client.BaseURL()))
		}

		switch format {
		case "json":
			return p.JSON(map[string]any{"total": total, "issues": tickets})
		case "keys":
			for _, t := range tickets {
				p.Line("%s", t.Key)
			}
		default:
			rows := make([][]string, 0, len(tickets))
			for _, t := range tickets {
				rows = append(rows, []string{t.Key, t.Status, t.Assignee, output.Truncate(t.Summary, 60)})
			}
			p.Table([]string{"Key", "Status", "Assignee", "Summary"}, rows)
			if total > len(tickets) {
				p.Line("Showing %d of %d issues", len(tickets), total)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("max-results", 50, "Maximum number of issues to return")
	searchCmd.Flags().String("fields", "summary,status,assignee,priority,issuetype", "Comma-separated fields to fetch")
	searchCmd.Flags().StringP("output", "o", "table", "Output format: table, json or keys")

	rootCmd.AddCommand(searchCmd)
}
