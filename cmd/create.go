package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create issues",
}

var createIssueCmd = &cobra.Command{
	Use:   "issue PROJECT SUMMARY",
	Short: "Create an issue",
	Long: `Create an issue in a project. The project key also selects the profile
when no --profile is given.

Example:
  jiractl create issue WEB "Fix login timeout" --type Bug --priority High
  jiractl create issue WEB "New feature" --type Story --parent WEB-100
  jiractl create issue WEB "API docs" --type Task -d "Update API docs" -l docs,api --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project := strings.ToUpper(strings.TrimSpace(args[0]))
		if project == "" {
			return fmt.Errorf("project key is empty")
		}
		summary := strings.TrimSpace(args[1])
		if summary == "" {
			return fmt.Errorf("summary is empty")
		}

		fields, err := createFields(cmd, project, summary)
		if err != nil {
			return err
		}

		p := printer(cmd)
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			p.Line("Would create issue in %s with:", project)
			return p.JSON(fields)
		}

		client := tracker(cmd).WithProject(project)
		created, err := client.CreateIssue(cmd.Context(), fields)
		if err != nil {
			return err
		}
		browse := client.BaseURL() + "/browse/" + created.Key

		switch p.Mode {
		case output.JSON:
			return p.JSON(map[string]any{"id": created.ID, "key": created.Key, "url": browse})
		case output.Quiet:
			p.Line("%s", created.Key)
		default:
			issueType, _ := cmd.Flags().GetString("type")
			p.Success("Created issue %s", created.Key)
			p.Fields([]output.Field{
				{Label: "Summary", Value: summary},
				{Label: "Type", Value: issueType},
				{Label: "URL", Value: browse},
			})
		}
		return nil
	},
}

func init() {
	createIssueCmd.Flags().StringP("type", "t", "", "Issue type (Task, Bug, Story, Epic, ...)")
	createIssueCmd.Flags().StringP("description", "d", "", "Issue description (wiki markup)")
	createIssueCmd.Flags().StringP("priority", "p", "", "Priority name")
	createIssueCmd.Flags().StringP("labels", "l", "", "Comma-separated labels")
	createIssueCmd.Flags().StringP("assignee", "a", "", "Username or account id")
	createIssueCmd.Flags().String("parent", "", "Parent issue key (sub-tasks)")
	createIssueCmd.Flags().String("components", "", "Comma-separated component names")
	createIssueCmd.Flags().String("fields-json", "", "Additional fields as a JSON object")
	createIssueCmd.Flags().Bool("dry-run", false, "Print the issue without creating it")
	_ = createIssueCmd.MarkFlagRequired("type")

	createCmd.AddCommand(createIssueCmd)
	rootCmd.AddCommand(createCmd)
}

// createFields builds the field map for a new issue. --fields-json is
// applied last and may override anything.
func createFields(cmd *cobra.Command, project, summary string) (map[string]any, error) {
	issueType, _ := cmd.Flags().GetString("type")
	fields := map[string]any{
		"project":   map[string]any{"key": project},
		"summary":   summary,
		"issuetype": map[string]any{"name": issueType},
	}

	if description, _ := cmd.Flags().GetString("description"); description != "" {
		fields["description"] = description
	}
	if priority, _ := cmd.Flags().GetString("priority"); priority != "" {
		fields["priority"] = map[string]any{"name": priority}
	}
	if labels, _ := cmd.Flags().GetString("labels"); labels != "" {
		fields["labels"] = splitList(labels)
	}
	if assignee, _ := cmd.Flags().GetString("assignee"); assignee != "" {
		fields["assignee"] = jira.AssigneeField(assignee)
	}
	if parent, _ := cmd.Flags().GetString("parent"); parent != "" {
		key, err := issueKeyArg(parent)
		if err != nil {
			return nil, fmt.Errorf("--parent: %w", err)
		}
		fields["parent"] = map[string]any{"key": key}
	}
	if components, _ := cmd.Flags().GetString("components"); components != "" {
		var list []map[string]any
		for _, name := range splitList(components) {
			list = append(list, map[string]any{"name": name})
		}
		fields["components"] = list
	}

	if raw, _ := cmd.Flags().GetString("fields-json"); raw != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return nil, fmt.Errorf("--fields-json must be a JSON object: %w", err)
		}
		for k, v := range extra {
			fields[k] = v
		}
	}
	return fields, nil
}
