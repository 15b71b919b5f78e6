package cmd

import (
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Look up tracker users",
}

var userMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := tracker(cmd).Myself(cmd.Context())
		if err != nil {
			return err
		}
		return printUser(cmd, models.UserFromAPI(user), true)
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get IDENTIFIER",
	Short: "Show a user by username, email or account id",
	Long: `Show a user by username, email or account id.

Example:
  jiractl user get john.doe
  jiractl user get john.doe@example.com
  jiractl user get 5b10ac8d82e05b22cc7d4ef5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := tracker(cmd).GetUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printUser(cmd, models.UserFromAPI(user), false)
	},
}

func init() {
	userCmd.AddCommand(userMeCmd, userGetCmd)
	rootCmd.AddCommand(userCmd)
}

func printUser(cmd *cobra.Command, u models.User, withTimeZone bool) error {
	p := printer(cmd)
	switch p.Mode {
	case output.JSON:
		return p.JSON(u)
	case output.Quiet:
		p.Line("%s", u.ID())
		return nil
	}

	active := "No"
	if u.Active {
		active = "Yes"
	}
	fields := []output.Field{
		{Label: "Name", Value: u.Name},
		{Label: "Email", Value: u.Email},
		{Label: "Account ID", Value: u.ID()},
		{Label: "Active", Value: active},
	}
	if withTimeZone {
		fields = append(fields, output.Field{Label: "Timezone", Value: u.TimeZone})
	}
	p.Fields(fields)
	return nil
}
