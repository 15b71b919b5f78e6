package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/danielolaszy/jiractl/internal/detect"
	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/netloc"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Get and update issues",
}

var issueGetCmd = &cobra.Command{
	Use:   "get KEY|URL",
	Short: "Show an issue",
	Long: `Show an issue by key or browse URL.

Example:
  jiractl issue get WEB-1381
  jiractl issue get https://jira.example.com/browse/WEB-1381 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		fields, err := cmd.Flags().GetString("fields")
		if err != nil {
			return err
		}

		client := tracker(cmd).WithHints(args[0], "")
		issue, err := client.GetIssue(cmd.Context(), key, splitList(fields))
		if err != nil {
			return err
		}

		ticket := models.TicketFromIssue(issue, client.BaseURL())
		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(ticket)
		case output.Quiet:
			p.Line("%s", ticket.Key)
		default:
			p.Fields([]output.Field{
				{Label: "Key", Value: ticket.Key},
				{Label: "Summary", Value: ticket.Summary},
				{Label: "Type", Value: ticket.Type},
				{Label: "Status", Value: ticket.Status},
				{Label: "Priority", Value: ticket.Priority},
				{Label: "Assignee", Value: ticket.Assignee},
				{Label: "Reporter", Value: ticket.Reporter},
				{Label: "Labels", Value: strings.Join(ticket.Labels, ", ")},
				{Label: "URL", Value: ticket.URL},
				{Label: "Description", Value: ticket.Description},
			})
		}
		return nil
	},
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update KEY",
	Short: "Update issue fields",
	Long: `Update fields of an issue.

Assignees that look like Cloud account ids are sent as accountId, anything
else as a username. Use "none" to unassign.

Example:
  jiractl issue update WEB-1381 --summary "New title" --priority High
  jiractl issue update WEB-1381 --fields-json '{"customfield_10010": "x"}' --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		fields, err := updateFields(cmd)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return fmt.Errorf("no fields to update: pass --summary, --priority, --labels, --assignee or --fields-json")
		}

		p := printer(cmd)
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			p.Line("Would update %s with:", key)
			return p.JSON(fields)
		}

		if err := tracker(cmd).WithHints(args[0], "").UpdateIssue(cmd.Context(), key, fields); err != nil {
			return err
		}
		switch p.Mode {
		case output.JSON:
			return p.JSON(map[string]any{"key": key, "updated": fieldNames(fields)})
		case output.Quiet:
			p.Line("%s", key)
		default:
			p.Success("Updated %s (%s)", key, strings.Join(fieldNames(fields), ", "))
		}
		return nil
	},
}

func init() {
	issueGetCmd.Flags().String("fields", "", "Comma-separated fields to fetch")

	issueUpdateCmd.Flags().String("summary", "", "New summary")
	issueUpdateCmd.Flags().String("priority", "", "Priority name")
	issueUpdateCmd.Flags().String("labels", "", "Comma-separated labels (replaces existing)")
	issueUpdateCmd.Flags().String("assignee", "", "Username, account id, or \"none\"")
	issueUpdateCmd.Flags().String("fields-json", "", "Additional fields as a JSON object")
	issueUpdateCmd.Flags().Bool("dry-run", false, "Print the update without sending it")

	issueCmd.AddCommand(issueGetCmd, issueUpdateCmd)
	rootCmd.AddCommand(issueCmd)
}

func updateFields(cmd *cobra.Command) (map[string]any, error) {
	fields := make(map[string]any)

	if raw, _ := cmd.Flags().GetString("fields-json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("--fields-json must be a JSON object: %w", err)
		}
	}
	if summary, _ := cmd.Flags().GetString("summary"); summary != "" {
		fields["summary"] = summary
	}
	if priority, _ := cmd.Flags().GetString("priority"); priority != "" {
		fields["priority"] = map[string]any{"name": priority}
	}
	if cmd.Flags().Changed("labels") {
		labels, _ := cmd.Flags().GetString("labels")
		fields["labels"] = nonNil(splitList(labels))
	}
	if cmd.Flags().Changed("assignee") {
		assignee, _ := cmd.Flags().GetString("assignee")
		fields["assignee"] = jira.AssigneeField(assignee)
	}
	return fields, nil
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// issueKeyArg accepts an issue key or a URL containing one.
func issueKeyArg(arg string) (string, error) {
	if !netloc.IsURL(arg) {
		if _, ok := profile.ParseIssueKey(arg); !ok {
			return "", fmt.Errorf("invalid issue key %q: expected PROJECT-123", arg)
		}
		return strings.ToUpper(arg), nil
	}
	keys := detect.IssueKeys(arg)
	if len(keys) == 0 {
		return "", fmt.Errorf("no issue key found in %s", arg)
	}
	return keys[0], nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
