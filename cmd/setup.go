package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/danielolaszy/jiractl/internal/config"
	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/danielolaszy/jiractl/internal/profile"
	"github.com/spf13/cobra"
)

var (
	// errValidation marks a failed setup or validate check.
	errValidation = errors.New("validation failed")
	// errAborted marks a setup the user declined to complete.
	errAborted = errors.New("setup cancelled")
)

const (
	typeCloud  = "cloud"
	typeServer = "server"
	typeAuto   = "auto"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure and verify tracker credentials",
	Long: `Configure tracker credentials interactively and verify them before saving.

Cloud instances use an account email and API token, Server/Data Center
instances a personal access token. With --profile the connection is saved as
a named profile in ~/.jira/profiles.json, otherwise it is written to
~/.env.jira (or --output).

Example:
  jiractl setup --profile work --url https://jira.example.com --projects WEB,OPS
  jiractl setup --url https://example.atlassian.net --test-only
  jiractl setup --migrate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		if migrate {
			return runMigrate(cmd)
		}
		return runSetup(cmd)
	},
}

func init() {
	setupCmd.Flags().String("url", "", "Tracker URL (prompted when omitted)")
	setupCmd.Flags().String("type", typeAuto, "Deployment type: cloud, server or auto")
	setupCmd.Flags().String("username", "", "Account email for Cloud (prompted when omitted)")
	setupCmd.Flags().String("projects", "", "Comma-separated project keys served by the profile")
	setupCmd.Flags().StringP("output", "o", "", "Env file to write without --profile (default ~/.env.jira)")
	setupCmd.Flags().BoolP("force", "f", false, "Overwrite existing files without asking")
	setupCmd.Flags().Bool("test-only", false, "Verify credentials without saving")
	setupCmd.Flags().Bool("migrate", false, "Convert ~/.env.jira into profile 'default'")

	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command) error {
	p := printer(cmd)
	ask := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	profileName, _ := cmd.Flags().GetString("profile")
	rawURL, _ := cmd.Flags().GetString("url")
	kind, _ := cmd.Flags().GetString("type")
	username, _ := cmd.Flags().GetString("username")
	projects, _ := cmd.Flags().GetString("projects")
	outPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	testOnly, _ := cmd.Flags().GetBool("test-only")

	if kind != typeCloud && kind != typeServer && kind != typeAuto {
		return fmt.Errorf("%w: --type must be cloud, server or auto", errValidation)
	}
	if outPath == "" {
		outPath = config.DefaultEnvFile()
	}

	if profileName != "" {
		p.Line("Tracker profile setup: %s\n", profileName)
	} else {
		p.Line("Tracker credential setup\n")
		if fileExists(outPath) && !force && !testOnly {
			p.Warning("Configuration file already exists: %s", outPath)
			if !ask.confirm("Do you want to overwrite it?", false) {
				return errAborted
			}
		}
	}

	// Step 1: URL
	if rawURL == "" {
		p.Line("Enter your tracker URL, e.g. https://example.atlassian.net or https://jira.example.com")
		var err error
		if rawURL, err = ask.require("URL"); err != nil {
			return err
		}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("%w: URL must start with http:// or https://", errValidation)
	}
	if isPlainRemoteHTTP(baseURL) {
		p.Warning("Using HTTP without TLS. Credentials will be transmitted in plaintext.")
	}

	msg, err := checkReachable(cmd, baseURL)
	if err != nil {
		return err
	}
	p.Success("%s", msg)

	// Step 2: deployment type
	if kind == typeAuto {
		detected := typeServer
		if config.IsCloudURL(baseURL) {
			detected = typeCloud
		}
		p.Line("Detected deployment type: %s", strings.ToUpper(detected))
		kind = detected
		if !ask.confirm("Is this correct?", true) {
			answer, err := ask.ask("Select type (cloud/server)", detected)
			if err != nil {
				return err
			}
			if answer != typeCloud && answer != typeServer {
				return fmt.Errorf("%w: type must be cloud or server", errValidation)
			}
			kind = answer
		}
	}

	// Step 3: credentials
	cfg := &config.Config{URL: baseURL, Cloud: strconv.FormatBool(kind == typeCloud)}
	if kind == typeCloud {
		cfg.Auth = profile.AuthBasic
		if username == "" {
			if username, err = ask.require("Email address"); err != nil {
				return err
			}
		}
		cfg.Username = username
		if cfg.APIToken, err = ask.secret("API token"); err != nil {
			return err
		}
	} else {
		cfg.Auth = profile.AuthPAT
		if cfg.PersonalToken, err = ask.secret("Personal access token"); err != nil {
			return err
		}
	}

	user, err := checkCredentials(cmd, cfg)
	if err != nil {
		fmt.Fprintf(p.Err, "Troubleshooting:\n  %s\n\n", troubleshooting(kind))
		return err
	}
	p.Success("Authenticated as: %s", user)

	if testOnly {
		p.Success("Credentials validated successfully (--test-only: not saved)")
		return nil
	}

	// Step 4: save
	if profileName != "" {
		return saveProfile(cmd, p, ask, profileName, cfg, projects)
	}
	return saveEnvFile(p, ask, outPath, cfg)
}

// checkReachable requests the URL without credentials. Authentication
// responses count as reachable.
func checkReachable(cmd *cobra.Command, baseURL string) (string, error) {
	status, err := jira.PingURL(cmd.Context(), baseURL, jira.Options{})
	switch {
	case err != nil:
		return "", fmt.Errorf("URL validation failed: %w: %w", errValidation, err)
	case status < 400:
		return fmt.Sprintf("Server reachable (status: %d)", status), nil
	case status == 401 || status == 403:
		return fmt.Sprintf("Server reachable, authentication required (status: %d)", status), nil
	case status < 500:
		return "", fmt.Errorf("URL validation failed: %w: client error when contacting server (status: %d)", errValidation, status)
	default:
		return "", fmt.Errorf("URL validation failed: %w: server error (status: %d)", errValidation, status)
	}
}

// checkCredentials authenticates with cfg and returns the account's
// display name.
func checkCredentials(cmd *cobra.Command, cfg *config.Config) (string, error) {
	client, err := connect(cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errValidation, err)
	}
	user, err := client.Myself(cmd.Context())
	if err == nil {
		name := displayName(user)
		if user.EmailAddress != "" {
			name += " (" + user.EmailAddress + ")"
		}
		return name, nil
	}

	var (
		status    *jira.StatusError
		challenge *jira.ChallengeError
		reason    string
	)
	switch {
	case errors.As(err, &challenge):
		reason = challenge.Error()
	case errors.Is(err, jira.ErrUnexpectedResponse):
		reason = "two-factor authentication (2FA/Secure Login) intercepted the API call; " +
			"the token may not bypass 2FA on this instance"
	case errors.As(err, &status) && status.StatusCode == 401:
		reason = "invalid credentials"
	case errors.As(err, &status) && status.StatusCode == 403:
		reason = "access denied, check permissions"
	default:
		reason = "connection error: " + err.Error()
	}
	return "", fmt.Errorf("authentication failed: %w: %s", errValidation, reason)
}

func troubleshooting(kind string) string {
	if kind == typeCloud {
		return "Verify the email address, and use an API token (not your password) from\n" +
			"  https://id.atlassian.com/manage-profile/security/api-tokens"
	}
	return "Create a new personal access token (Profile > Personal Access Tokens),\n" +
		"  and check that it has not expired"
}

func saveProfile(cmd *cobra.Command, p *output.Printer, ask *prompter, name string, cfg *config.Config, projects string) error {
	path, err := profile.DefaultPath()
	if err != nil {
		return err
	}
	store := profile.NewStore(path)

	projectList := profile.ParseProjects(projects)
	if !cmd.Flags().Changed("projects") {
		answer, err := ask.ask("Project keys (comma-separated, e.g. WEB,OPS)", "")
		if err != nil {
			return err
		}
		projectList = profile.ParseProjects(answer)
	}

	p.Line("Profile '%s' will be saved to %s (mode 0600)", name, store.Path())
	if !ask.confirm("Save profile?", true) {
		return errAborted
	}

	prof := cfg.ToProfile()
	prof.Projects = projectList
	if err := store.Save(name, prof); err != nil {
		return err
	}

	p.Success("Profile '%s' saved to %s", name, store.Path())
	p.Line("\nTry it:\n  jiractl validate --profile %s --verbose", name)
	if len(projectList) > 0 {
		p.Line("\nAuto-resolution enabled for projects: %s", strings.Join(projectList, ", "))
	}
	return nil
}

func saveEnvFile(p *output.Printer, ask *prompter, path string, cfg *config.Config) error {
	p.Line("Configuration will be saved to %s (mode 0600)", path)
	if !ask.confirm("Save configuration?", true) {
		return errAborted
	}
	if err := writeEnvFile(path, cfg); err != nil {
		return err
	}
	p.Success("Configuration saved to %s", path)
	p.Line("\nTry it:\n  jiractl validate --verbose")
	return nil
}

// writeEnvFile writes cfg in dotenv syntax, readable by config.LoadEnvFile.
// Values are single-quoted so that '#', '$' and quotes survive verbatim.
func writeEnvFile(path string, cfg *config.Config) error {
	var b strings.Builder
	b.WriteString("# Tracker CLI configuration\n")
	b.WriteString("# Generated by jiractl setup\n")
	b.WriteString("# Contains credentials; keep permissions at 0600\n\n")
	for _, kv := range [][2]string{
		{config.KeyURL, cfg.URL},
		{config.KeyUsername, cfg.Username},
		{config.KeyAPIToken, cfg.APIToken},
		{config.KeyPersonalToken, cfg.PersonalToken},
		{config.KeyCloud, cfg.Cloud},
	} {
		if kv[1] == "" {
			continue
		}
		if strings.ContainsAny(kv[1], "\r\n") {
			return fmt.Errorf("%w: %s must be a single line", errValidation, kv[0])
		}
		fmt.Fprintf(&b, "%s='%s'\n", kv[0], kv[1])
	}
	return profile.WriteFileAtomic(path, []byte(b.String()))
}

// runMigrate converts the legacy env file into profile "default".
func runMigrate(cmd *cobra.Command) error {
	p := printer(cmd)
	ask := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	force, _ := cmd.Flags().GetBool("force")

	envPath := config.DefaultEnvFile()
	if !fileExists(envPath) {
		return fmt.Errorf("%w: no env file found at %s", errValidation, envPath)
	}

	path, err := profile.DefaultPath()
	if err != nil {
		return err
	}
	store := profile.NewStore(path)
	if store.Exists() && !force {
		p.Warning("Profiles file already exists: %s", store.Path())
		if !ask.confirm("Add legacy config as 'default' profile?", false) {
			return errAborted
		}
	}

	cfg, err := config.LoadEnvFile(envPath)
	if err != nil {
		return err
	}
	prof := cfg.ToProfile()
	if err := prof.Validate(); err != nil {
		p.Warning("Migrated profile is incomplete: %s", err)
	}
	if err := store.Save("default", prof); err != nil {
		return err
	}

	p.Success("Migrated %s to %s (profile: 'default')", envPath, store.Path())
	p.Line("\nAdd project keys to the \"projects\" list in %s to enable auto-resolution.", store.Path())
	return nil
}

func isPlainRemoteHTTP(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "http" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return false
	}
	return true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
