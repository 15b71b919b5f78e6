package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/danielolaszy/jiractl/internal/config"
	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/danielolaszy/jiractl/pkg/models"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

// connect builds a client from resolved settings. Tests replace it.
var connect = func(cfg *config.Config) (jira.Tracker, error) {
	return jira.NewClient(cfg, jira.Options{})
}

// openBrowser opens a URL in the user's browser. Tests replace it.
var openBrowser = browser.OpenURL

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and connectivity",
	Long: `Check that jiractl can reach and authenticate against the tracker.

Exit codes:
  0  all checks passed
  1  runtime problem
  2  configuration error
  3  connectivity or authentication failure

With --all every stored profile is checked and reported as OK, HTTP nnn,
UNREACHABLE or CONFIG ERROR.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all {
			return validateAll(cmd)
		}
		return validateOne(cmd)
	},
}

func init() {
	validateCmd.Flags().StringP("project", "p", "", "Also verify access to this project")
	validateCmd.Flags().Bool("all", false, "Check every stored profile")
	validateCmd.Flags().Bool("open-login", false, "Open the login page in a browser when a CAPTCHA is required")
	validateCmd.Flags().BoolP("verbose", "v", false, "Show each check")

	rootCmd.AddCommand(validateCmd)
}

func validateOne(cmd *cobra.Command) error {
	p := printer(cmd)
	verbose, _ := cmd.Flags().GetBool("verbose")
	project, _ := cmd.Flags().GetString("project")
	openLogin, _ := cmd.Flags().GetBool("open-login")

	if verbose {
		p.Success("Runtime: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	}

	cfg, err := config.Load(loadOptions(cmd))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if verbose {
		describeConfig(p, cfg)
	}

	client, err := connect(cfg)
	if err != nil {
		return err
	}

	status, err := client.Ping(cmd.Context())
	if err != nil {
		return err
	}
	if verbose {
		p.Success("Server reachable: %s (status: %d)", cfg.URL, status)
	}

	user, err := client.Myself(cmd.Context())
	if err != nil {
		var challenge *jira.ChallengeError
		if openLogin && errors.As(err, &challenge) {
			p.Warning("Opening %s", challenge.LoginURL)
			if berr := openBrowser(challenge.LoginURL); berr != nil {
				logging.Warn("failed to open browser", "error", berr)
			}
		}
		return fmt.Errorf("authentication failed: %w", err)
	}
	if verbose {
		p.Success("Authenticated as: %s (%s)", displayName(user), user.EmailAddress)
	} else if p.Mode == output.Human {
		p.Success("Authentication successful")
	}

	if project != "" {
		proj, err := client.GetProject(cmd.Context(), project)
		if err != nil {
			p.Warning("Could not access project %s: %s", project, jira.Sanitize(err.Error()))
		} else if p.Mode == output.Human {
			p.Success("Project access verified: %s (%s)", project, proj.Name)
		}
	}

	switch p.Mode {
	case output.JSON:
		return p.JSON(map[string]any{
			"profile": cfg.Profile,
			"url":     cfg.URL,
			"user":    displayName(user),
			"status":  "OK",
		})
	case output.Human:
		p.Success("All validation checks passed!")
	}
	return nil
}

func describeConfig(p *output.Printer, cfg *config.Config) {
	if cfg.Profile != "" {
		p.Success("Profile: %s (%s)", cfg.Profile, cfg.Source)
	} else if cfg.Source != "" {
		p.Success("Environment file: %s", cfg.Source)
	}
	p.Success("URL: %s", cfg.URL)
	switch cfg.Auth {
	case profile.AuthPAT:
		p.Success("Auth mode: Personal Access Token (Server/DC)")
		p.Success("Token: %s", logging.MaskSensitive(cfg.PersonalToken))
	default:
		p.Success("Auth mode: Username + API Token (Cloud)")
		p.Success("Username: %s", cfg.Username)
		p.Success("API token: %s", logging.MaskSensitive(cfg.APIToken))
	}
}

func validateAll(cmd *cobra.Command) error {
	path, err := profile.DefaultPath()
	if err != nil {
		return err
	}
	doc, err := profile.NewStore(path).Load()
	if err != nil {
		return err
	}

	statuses := make([]models.ProfileStatus, 0, len(doc.Profiles))
	var unreachable, misconfigured int
	for _, name := range doc.Names() {
		prof, _ := doc.Get(name)
		status := checkProfile(cmd, prof)
		status.Default = name == doc.Default
		switch {
		case status.Status == "CONFIG ERROR":
			misconfigured++
		case status.Status != "OK" && status.Status != "HTTP 401" && status.Status != "HTTP 403":
			unreachable++
		}
		statuses = append(statuses, status)
	}

	p := printer(cmd)
	switch p.Mode {
	case output.JSON:
		if err := p.JSON(statuses); err != nil {
			return err
		}
	case output.Quiet:
	default:
		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			name := s.Profile
			if s.Default {
				name += " *"
			}
			rows = append(rows, []string{name, s.URL, s.Status, s.Detail})
		}
		p.Table([]string{"Profile", "URL", "Status", "Detail"}, rows)
	}

	switch {
	case unreachable > 0:
		return fmt.Errorf("%d of %d profiles unreachable: %w", unreachable, len(statuses), jira.ErrConnectivity)
	case misconfigured > 0:
		return fmt.Errorf("%d of %d profiles misconfigured: %w", misconfigured, len(statuses), errValidation)
	}
	return nil
}

// checkProfile pings one profile's server. Authentication responses count
// as reachable.
func checkProfile(cmd *cobra.Command, prof profile.Profile) models.ProfileStatus {
	status := models.ProfileStatus{Profile: prof.Name, URL: prof.URL}

	cfg, err := config.FromProfile(prof)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		status.Status = "CONFIG ERROR"
		status.Detail = err.Error()
		return status
	}

	client, err := connect(cfg)
	if err != nil {
		status.Status = "CONFIG ERROR"
		status.Detail = err.Error()
		return status
	}
	code, err := client.Ping(cmd.Context())
	switch {
	case err != nil:
		status.Status = "UNREACHABLE"
		status.Detail = jira.Sanitize(err.Error())
	case code < 400:
		status.Status = "OK"
	default:
		status.Status = fmt.Sprintf("HTTP %d", code)
	}
	logging.Debug("checked profile", "profile", prof.Name, "status", status.Status)
	return status
}

func displayName(u *jira.User) string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.AccountID
}
