package cmd

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Find field ids for --fields and --fields-json",
}

var fieldsSearchCmd = &cobra.Command{
	Use:   "search KEYWORD",
	Short: "Search fields by name or id",
	Long: `Search fields whose name or id contains KEYWORD, ignoring case.

Example:
  jiractl fields search sprint
  jiractl fields search "story points"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		all, err := listFields(cmd)
		if err != nil {
			return err
		}

		keyword := strings.ToLower(args[0])
		var matching []models.FieldInfo
		for _, f := range all {
			if strings.Contains(strings.ToLower(f.Name), keyword) || strings.Contains(strings.ToLower(f.ID), keyword) {
				matching = append(matching, f)
			}
		}
		matching = limitFields(matching, limit)

		p := printer(cmd)
		if p.Mode == output.Human && len(matching) == 0 {
			p.Line("No fields matching '%s'", args[0])
			return nil
		}
		return printFields(p, matching, true)
	},
}

var fieldsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		if kind != "all" && kind != "custom" && kind != "system" {
			return fmt.Errorf("invalid --type %q: must be all, custom or system", kind)
		}

		all, err := listFields(cmd)
		if err != nil {
			return err
		}
		var out []models.FieldInfo
		for _, f := range all {
			if kind == "all" || f.Custom == (kind == "custom") {
				out = append(out, f)
			}
		}
		return printFields(printer(cmd), limitFields(out, limit), false)
	},
}

func init() {
	fieldsSearchCmd.Flags().IntP("limit", "n", 20, "Maximum number of fields to show")
	fieldsListCmd.Flags().StringP("type", "t", "all", "Field kind: all, custom or system")
	fieldsListCmd.Flags().IntP("limit", "n", 50, "Maximum number of fields to show")

	fieldsCmd.AddCommand(fieldsSearchCmd, fieldsListCmd)
	rootCmd.AddCommand(fieldsCmd)
}

func listFields(cmd *cobra.Command) ([]models.FieldInfo, error) {
	fields, err := tracker(cmd).Fields(cmd.Context())
	if err != nil {
		return nil, err
	}
	out := make([]models.FieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, models.FieldFromAPI(f))
	}
	return out, nil
}

func limitFields(fields []models.FieldInfo, limit int) []models.FieldInfo {
	if limit > 0 && len(fields) > limit {
		return fields[:limit]
	}
	return fields
}

func printFields(p *output.Printer, fields []models.FieldInfo, withType bool) error {
	switch p.Mode {
	case output.JSON:
		return p.JSON(nonNilFields(fields))
	case output.Quiet:
		for _, f := range fields {
			p.Line("%s", f.ID)
		}
		return nil
	}

	headers := []string{"ID", "Name", "Custom"}
	if withType {
		headers = []string{"ID", "Name", "Type", "Custom"}
	}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		custom := "No"
		if f.Custom {
			custom = "Yes"
		}
		if withType {
			kind := f.Type
			if kind == "" {
				kind = "-"
			}
			rows = append(rows, []string{f.ID, f.Name, kind, custom})
			continue
		}
		rows = append(rows, []string{f.ID, f.Name, custom})
	}
	p.Table(headers, rows)
	return nil
}

func nonNilFields(fields []models.FieldInfo) []models.FieldInfo {
	if fields == nil {
		return []models.FieldInfo{}
	}
	return fields
}
