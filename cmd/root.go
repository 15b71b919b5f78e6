// Package cmd provides the command-line interface for jiractl.
package cmd

import (
	"context"
	"errors"

	"github.com/danielolaszy/jiractl/internal/config"
	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitRuntimeError = 1
	ExitConfigError  = 2
	ExitConnectError = 3
)

var rootCmd = &cobra.Command{
	Use:   "jiractl",
	Short: "jiractl works with issues on one or more tracker instances",
	Long: `jiractl reads and updates issues, comments, worklogs and transitions on
tracker instances (Cloud or Server/Data Center).

Connections are stored as named profiles in ~/.jira/profiles.json. For every
command the profile is chosen from, in order: --profile, the host of a URL
argument, the project prefix of an issue key, a .jira-profile file in the
current directory, and finally the default profile. Without a profiles file
the legacy ~/.env.jira file and JIRA_* environment variables are used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logging.SetupLogger(cmd.ErrOrStderr(), logging.LevelDebug)
		}
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringP("profile", "P", "", "Profile name from ~/.jira/profiles.json")
	rootCmd.PersistentFlags().String("env-file", "", "Legacy environment file (bypasses profiles)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Minimal output")
	rootCmd.PersistentFlags().Bool("debug", false, "Show debug logging")
}

// printer returns an output printer honoring --json and --quiet.
func printer(cmd *cobra.Command) *output.Printer {
	mode := output.Human
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		mode = output.Quiet
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		mode = output.JSON
	}
	return output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}

// loadOptions collects the global connection flags.
func loadOptions(cmd *cobra.Command) config.Options {
	profileName, _ := cmd.Flags().GetString("profile")
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Options{Profile: profileName, EnvFile: envFile}
}

// tracker returns a lazy client for the global flags. Commands attach
// issue key and URL hints before the first call.
func tracker(cmd *cobra.Command) *jira.LazyClient {
	return jira.NewLazyClient(loadOptions(cmd), buildTracker)
}

// buildTracker is replaced in tests.
var buildTracker jira.BuildFunc = jira.DefaultBuild

// ExitCode maps an error to the process exit code: 2 for configuration
// problems, 3 for connectivity, authentication and security failures, 1 for
// everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errValidation),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, profile.ErrMalformed),
		errors.Is(err, profile.ErrAmbiguous),
		errors.Is(err, profile.ErrInvalidProfile),
		errors.Is(err, profile.ErrUnresolved):
		return ExitConfigError
	case errors.Is(err, jira.ErrConnectivity),
		errors.Is(err, jira.ErrUnauthorized),
		errors.Is(err, jira.ErrSecurity),
		errors.Is(err, jira.ErrUnexpectedResponse):
		return ExitConnectError
	default:
		return ExitRuntimeError
	}
}

// Suggestion returns a follow-up hint for err, or "".
func Suggestion(err error) string {
	var challenge *jira.ChallengeError
	switch {
	case errors.As(err, &challenge):
		return "Open " + challenge.LoginURL + " in a browser, solve the challenge, then retry (or run: jiractl validate --open-login)"
	case errors.Is(err, profile.ErrUnresolved), errors.Is(err, profile.ErrAmbiguous):
		return "Pass --profile NAME, or add a .jira-profile file to this directory"
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, config.ErrInvalidConfig), errors.Is(err, profile.ErrInvalidProfile):
		return "Run: jiractl setup"
	case errors.Is(err, jira.ErrUnauthorized):
		return "Check your credentials with: jiractl validate"
	}
	return ""
}
