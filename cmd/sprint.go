package cmd

import (
	"fmt"
	"strconv"

	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "List sprints and their issues",
}

var sprintListCmd = &cobra.Command{
	Use:   "list BOARD_ID",
	Short: "List the sprints of a board",
	Long: `List the sprints of an agile board.

Example:
  jiractl sprint list 42
  jiractl sprint list 42 --state active --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, err := idArg("board", args[0])
		if err != nil {
			return err
		}
		state, _ := cmd.Flags().GetString("state")
		if state != "" && state != "active" && state != "future" && state != "closed" {
			return fmt.Errorf("invalid --state %q: must be active, future or closed", state)
		}

		sprints, err := tracker(cmd).Sprints(cmd.Context(), boardID, state)
		if err != nil {
			return err
		}
		out := make([]models.Sprint, 0, len(sprints))
		for _, s := range sprints {
			out = append(out, models.SprintFromAPI(s))
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(out)
		case output.Quiet:
			for _, s := range out {
				p.Line("%d", s.ID)
			}
		default:
			if len(out) == 0 {
				p.Line("No sprints found for board %d", boardID)
				return nil
			}
			rows := make([][]string, 0, len(out))
			for _, s := range out {
				rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, s.State, orDash(s.Start), orDash(s.End)})
			}
			p.Table([]string{"ID", "Name", "State", "Start", "End"}, rows)
		}
		return nil
	},
}

var sprintIssuesCmd = &cobra.Command{
	Use:   "issues SPRINT_ID",
	Short: "List the issues in a sprint",
	Long: `List the issues in a sprint, ordered by rank.

Example:
  jiractl sprint issues 123
  jiractl sprint issues 123 --fields key,summary,status,priority`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sprintID, err := idArg("sprint", args[0])
		if err != nil {
			return err
		}
		fields, _ := cmd.Flags().GetString("fields")
		columns := []string{"key"}
		for _, f := range splitList(fields) {
			if f != "key" {
				columns = append(columns, f)
			}
		}

		client := tracker(cmd)
		issues, err := client.SprintIssues(cmd.Context(), sprintID)
		if err != nil {
			return err
		}
		if p := printer(cmd); len(issues) == 0 && p.Mode == output.Human {
			p.Line("No issues in sprint %d", sprintID)
			return nil
		}
		return printIssues(cmd, issues, client.BaseURL(), columns)
	},
}

var sprintCurrentCmd = &cobra.Command{
	Use:   "current BOARD_ID",
	Short: "Show the active sprint of a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, err := idArg("board", args[0])
		if err != nil {
			return err
		}

		sprints, err := tracker(cmd).Sprints(cmd.Context(), boardID, "active")
		if err != nil {
			return err
		}
		p := printer(cmd)
		if len(sprints) == 0 {
			if p.Mode == output.Human {
				p.Line("No active sprint for board %d", boardID)
			}
			return nil
		}

		s := models.SprintFromAPI(sprints[0])
		switch p.Mode {
		case output.JSON:
			return p.JSON(s)
		case output.Quiet:
			p.Line("%d", s.ID)
		default:
			p.Fields([]output.Field{
				{Label: "ID", Value: strconv.Itoa(s.ID)},
				{Label: "Name", Value: s.Name},
				{Label: "Start", Value: orDash(s.Start)},
				{Label: "End", Value: orDash(s.End)},
			})
		}
		return nil
	},
}

func init() {
	sprintListCmd.Flags().StringP("state", "s", "", "Sprint state: active, future or closed")
	sprintIssuesCmd.Flags().StringP("fields", "f", "key,summary,status,assignee", "Comma-separated columns to show")

	sprintCmd.AddCommand(sprintListCmd, sprintIssuesCmd, sprintCurrentCmd)
	rootCmd.AddCommand(sprintCmd)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
