package cmd

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link issues and list link types",
}

var linkCreateCmd = &cobra.Command{
	Use:   "create FROM TO",
	Short: "Link two issues",
	Long: `Link FROM to TO with a link type. FROM is the outward side, so
"link create WEB-1 WEB-2 --type Blocks" means WEB-1 blocks WEB-2.

Example:
  jiractl link create WEB-1 WEB-2 --type Blocks
  jiractl link create WEB-1 OPS-7 --type Relates --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := issueKeyArg(args[0])
		if err != nil {
			return err
		}
		to, err := issueKeyArg(args[1])
		if err != nil {
			return err
		}
		linkType, _ := cmd.Flags().GetString("type")
		if strings.TrimSpace(linkType) == "" {
			return fmt.Errorf("--type is empty")
		}

		p := printer(cmd)
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			p.Line("Would create link: %s --[%s]--> %s", from, linkType, to)
			return nil
		}

		if err := tracker(cmd).WithHints(args[0], "").LinkIssues(cmd.Context(), from, to, linkType); err != nil {
			return err
		}
		switch p.Mode {
		case output.JSON:
			return p.JSON(map[string]any{"from": from, "to": to, "type": linkType, "created": true})
		case output.Quiet:
			p.Line("ok")
		default:
			p.Success("Created link: %s --[%s]--> %s", from, linkType, to)
		}
		return nil
	},
}

var linkListTypesCmd = &cobra.Command{
	Use:   "list-types",
	Short: "List the issue link types of the instance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := tracker(cmd).LinkTypes(cmd.Context())
		if err != nil {
			return err
		}

		out := make([]models.LinkType, 0, len(types))
		for _, lt := range types {
			out = append(out, models.LinkType{Name: lt.Name, Inward: lt.Inward, Outward: lt.Outward})
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(out)
		case output.Quiet:
			for _, lt := range out {
				p.Line("%s", lt.Name)
			}
		default:
			rows := make([][]string, 0, len(out))
			for _, lt := range out {
				rows = append(rows, []string{lt.Name, lt.Inward, lt.Outward})
			}
			p.Table([]string{"Name", "Inward", "Outward"}, rows)
		}
		return nil
	},
}

func init() {
	linkCreateCmd.Flags().StringP("type", "t", "", "Link type name, e.g. Blocks or Relates")
	linkCreateCmd.Flags().Bool("dry-run", false, "Print the link without creating it")
	_ = linkCreateCmd.MarkFlagRequired("type")

	linkCmd.AddCommand(linkCreateCmd, linkListTypesCmd)
	rootCmd.AddCommand(linkCmd)
}
