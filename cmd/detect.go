package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielolaszy/jiractl/internal/detect"
	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect issue references in a prompt (hook mode)",
	Long: `Read a prompt from stdin and, when it mentions issue keys, print a reminder
naming the jiractl commands that can work with them.

Input may be raw text or a JSON object with a "prompt", "content" or
"message" field. Nothing is printed when no issue key is found, and the
command never fails on bad input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil || len(input) == 0 {
			logging.Debug("no hook input", "error", err)
			return nil
		}
		text := detect.PromptText(input)
		if text == "" {
			return nil
		}

		keys := detect.IssueKeys(text)
		if len(keys) == 0 {
			return nil
		}

		var suggested string
		if path, err := profile.DefaultPath(); err == nil {
			suggested = detect.Suggest(profile.NewStore(path), keys, detect.Hosts(text))
		}

		fmt.Fprint(cmd.OutOrStdout(), reminder(keys, suggested))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func reminder(keys []string, suggested string) string {
	var b strings.Builder
	b.WriteString("<system-reminder>\n")
	fmt.Fprintf(&b, "Detected issue reference(s): %s\n\n", strings.Join(keys, ", "))
	b.WriteString("jiractl can help:\n")
	b.WriteString("- Fetch issue details with: jiractl issue get KEY\n")
	b.WriteString("- Search related issues with: jiractl search JQL\n")
	b.WriteString("- Comment with: jiractl comment add KEY TEXT\n")
	b.WriteString("- Change status with: jiractl transition do KEY STATUS\n")
	b.WriteString("- Log time with: jiractl worklog add KEY TIME_SPENT\n")
	b.WriteString("- Link issues with: jiractl link create FROM TO --type Blocks\n")
	if suggested != "" {
		fmt.Fprintf(&b, "\nSuggested profile: --profile %s\n", suggested)
	}
	b.WriteString("</system-reminder>\n")
	return b.String()
}
