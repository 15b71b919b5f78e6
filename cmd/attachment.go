package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/netloc"
	"github.com/danielolaszy/jiractl/internal/output"
	"github.com/spf13/cobra"
)

var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Work with issue attachments",
}

var attachmentDownloadCmd = &cobra.Command{
	Use:   "download URL OUTPUT",
	Short: "Download an attachment",
	Long: `Download an attachment to a file inside the current directory.

URL must point at the configured tracker host, or be a path relative to it.
OUTPUT must stay inside the current directory and its parent must exist.

Example:
  jiractl attachment download https://jira.example.com/secure/attachment/10001/log.txt log.txt`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, out := args[0], args[1]

		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		path, err := jira.ValidateOutputPath(wd, out)
		if err != nil {
			return err
		}

		client := tracker(cmd)
		if netloc.IsURL(target) {
			client.WithHints("", target)
		}

		n, err := download(cmd, client, target, path)
		if err != nil {
			return err
		}

		p := printer(cmd)
		switch p.Mode {
		case output.JSON:
			return p.JSON(map[string]any{"path": path, "bytes": n})
		case output.Quiet:
			p.Line("%s", path)
		default:
			p.Success("Downloaded to: %s (%d bytes)", path, n)
		}
		return nil
	},
}

func init() {
	attachmentCmd.AddCommand(attachmentDownloadCmd)
	rootCmd.AddCommand(attachmentCmd)
}

// download writes to a temporary sibling of path and renames it into place,
// so a failed transfer never leaves a partial file at path.
func download(cmd *cobra.Command, client jira.Tracker, target, path string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Error("failed to remove partial download", "path", tmpName, "error", err)
		}
	}()

	n, err := client.Download(cmd.Context(), target, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to write %s: %w", path, cerr)
	}
	if err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return n, fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Debug("attachment saved", "path", path, "bytes", n)
	return n, nil
}
