package cmd

import (
	"fmt"

	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Add and list issue comments",
}

var commentAddCmd = &cobra.Command{
	Use:   "add KEY TEXT",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		if args[1] == "" {
			return fmt.Errorf("comment text is empty")
		}

		comment, err := tracker(cmd).WithHints(args[0], "").AddComment(cmd.Context(), key, args[1])
		if err != nil {
			return err
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(models.CommentFromAPI(comment))
		case output.Quiet:
			p.Line("%s", comment.ID)
		default:
			p.Success("Added comment %s to %s", comment.ID, key)
		}
		return nil
	},
}

var commentListCmd = &cobra.Command{
	Use:   "list KEY",
	Short: "List comments on an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		comments, err := tracker(cmd).WithHints(args[0], "").Comments(cmd.Context(), key)
		if err != nil {
			return err
		}
		// Most recent last; keep the tail when limited.
		if limit > 0 && len(comments) > limit {
			comments = comments[len(comments)-limit:]
		}

		out := make([]models.Comment, 0, len(comments))
		for _, c := range comments {
			out = append(out, models.CommentFromAPI(c))
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(out)
		case output.Quiet:
			for _, c := range out {
				p.Line("%s", c.ID)
			}
		default:
			if len(out) == 0 {
				p.Line("No comments on %s", key)
				return nil
			}
			for i, c := range out {
				if i > 0 {
					p.Line("")
				}
				p.Fields([]output.Field{
					{Label: "Author", Value: c.Author},
					{Label: "Created", Value: c.Created},
					{Label: "Body", Value: c.Body},
				})
			}
		}
		return nil
	},
}

func init() {
	commentListCmd.Flags().Int("limit", 0, "Show only the most recent N comments")

	commentCmd.AddCommand(commentAddCmd, commentListCmd)
	rootCmd.AddCommand(commentCmd)
}
