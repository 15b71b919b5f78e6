package cmd

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var transitionCmd = &cobra.Command{
	Use:   "transition",
	Short: "List and perform workflow transitions",
}

var transitionListCmd = &cobra.Command{
	Use:   "list KEY",
	Short: "List transitions available on an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		available, err := tracker(cmd).WithHints(args[0], "").Transitions(cmd.Context(), key)
		if err != nil {
			return err
		}

		out := make([]models.Transition, 0, len(available))
		for _, t := range available {
			out = append(out, models.TransitionFromAPI(t))
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(out)
		case output.Quiet:
			for _, t := range out {
				p.Line("%s", t.ID)
			}
		default:
			rows := make([][]string, 0, len(out))
			for _, t := range out {
				rows = append(rows, []string{t.ID, t.Name, t.ToStatus})
			}
			p.Table([]string{"ID", "Transition", "To status"}, rows)
		}
		return nil
	},
}

var transitionDoCmd = &cobra.Command{
	Use:   "do KEY STATUS",
	Short: "Move an issue to a status",
	Long: `Move an issue to a status.

STATUS matches either the target status or the transition name, ignoring case.

Example:
  jiractl transition do WEB-1381 "In Progress"
  jiractl transition do WEB-1381 Done --comment "Released in 2.4"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		comment, _ := cmd.Flags().GetString("comment")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		client := tracker(cmd).WithHints(args[0], "")
		available, err := client.Transitions(cmd.Context(), key)
		if err != nil {
			return err
		}
		match, err := findTransition(available, args[1])
		if err != nil {
			return err
		}

		p := printer(cmd)
		if dryRun {
			p.Line("Would move %s via %q (id %s) to %s", key, match.Name, match.ID, match.To.Name)
			return nil
		}
		if err := client.DoTransition(cmd.Context(), key, match.ID, comment); err != nil {
			return err
		}

		switch p.Mode {
		case output.JSON:
			return p.JSON(models.TransitionFromAPI(match))
		case output.Quiet:
			p.Line("%s", key)
		default:
			p.Success("Moved %s to %s", key, match.To.Name)
		}
		return nil
	},
}

func init() {
	transitionDoCmd.Flags().String("comment", "", "Comment to add with the transition")
	transitionDoCmd.Flags().Bool("dry-run", false, "Show the transition without performing it")

	transitionCmd.AddCommand(transitionListCmd, transitionDoCmd)
	rootCmd.AddCommand(transitionCmd)
}

// findTransition picks the transition whose target status or name equals
// target, ignoring case. Target status matches take precedence.
func findTransition(available []jira.Transition, target string) (jira.Transition, error) {
	target = strings.TrimSpace(target)
	for _, t := range available {
		if strings.EqualFold(t.To.Name, target) {
			return t, nil
		}
	}
	for _, t := range available {
		if strings.EqualFold(t.Name, target) {
			return t, nil
		}
	}

	names := make([]string, 0, len(available))
	for _, t := range available {
		names = append(names, t.To.Name)
	}
	if len(names) == 0 {
		return jira.Transition{}, fmt.Errorf("no transitions available")
	}
	return jira.Transition{}, fmt.Errorf("no transition to %q; available: %s", target, strings.Join(names, ", "))
}
