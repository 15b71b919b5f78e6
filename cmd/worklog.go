package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

// startedLayouts are the accepted --started formats, in local time.
var startedLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var worklogCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Log and list time spent on issues",
}

var worklogAddCmd = &cobra.Command{
	Use:   "add KEY TIME_SPENT",
	Short: "Log time on an issue",
	Long: `Log time on an issue.

TIME_SPENT uses tracker notation such as "2h", "1d 4h" or "30m".

Example:
  jiractl worklog add WEB-1381 "1h 30m" --comment "code review"
  jiractl worklog add WEB-1381 2h --started 2026-03-01T09:30`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		spent := strings.TrimSpace(args[1])
		if spent == "" {
			return fmt.Errorf("time spent is empty")
		}
		comment, _ := cmd.Flags().GetString("comment")
		startedFlag, _ := cmd.Flags().GetString("started")
		started, err := parseStarted(startedFlag)
		if err != nil {
			return err
		}

		record, err := tracker(cmd).WithHints(args[0], "").AddWorklog(cmd.Context(), key, jira.WorklogInput{
			TimeSpent: spent,
			Comment:   comment,
			Started:   started,
		})
		if err != nil {
			return err
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(models.WorklogFromAPI(record))
		case output.Quiet:
			p.Line("%s", record.ID)
		default:
			p.Success("Logged %s on %s", spent, key)
		}
		return nil
	},
}

var worklogListCmd = &cobra.Command{
	Use:   "list KEY",
	Short: "List worklog entries of an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := tracker(cmd).WithHints(args[0], "").Worklogs(cmd.Context(), key)
		if err != nil {
			return err
		}
		if limit > 0 && len(records) > limit {
			records = records[len(records)-limit:]
		}

		logs := make([]models.Worklog, 0, len(records))
		for i := range records {
			logs = append(logs, models.WorklogFromAPI(&records[i]))
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(logs)
		case output.Quiet:
			for _, w := range logs {
				p.Line("%s", w.ID)
			}
		default:
			rows := make([][]string, 0, len(logs))
			for _, w := range logs {
				started := ""
				if w.Started != nil {
					started = w.Started.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{started, w.Author, w.TimeSpent, output.Truncate(w.Comment, 50)})
			}
			p.Table([]string{"Started", "Author", "Spent", "Comment"}, rows)
		}
		return nil
	},
}

func init() {
	worklogAddCmd.Flags().String("comment", "", "Worklog comment")
	worklogAddCmd.Flags().String("started", "", "Start time: YYYY-MM-DD, YYYY-MM-DDTHH:MM or YYYY-MM-DDTHH:MM:SS (local time)")
	worklogListCmd.Flags().Int("limit", 0, "Show only the most recent N entries")

	worklogCmd.AddCommand(worklogAddCmd, worklogListCmd)
	rootCmd.AddCommand(worklogCmd)
}

// parseStarted parses a --started value in local time. Empty means now,
// which is left to the server.
func parseStarted(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range startedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --started %q: use YYYY-MM-DD, YYYY-MM-DDTHH:MM or YYYY-MM-DDTHH:MM:SS", s)
}
