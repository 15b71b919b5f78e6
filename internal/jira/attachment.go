package jira

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidOutput indicates an attachment cannot be written to the
// requested path.
var ErrInvalidOutput = errors.New("invalid output path")

// Download streams the attachment at target into w. target may be an
// absolute URL on the configured host or a path relative to it; anything
// else is refused before a request is made.
func (c *Client) Download(ctx context.Context, target string, w io.Writer) (int64, error) {
	resolved, err := Resolve(c.cfg.URL, target)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return 0, SanitizeError(fmt.Errorf("failed to build download request: %w", err))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, wrap("download failed", nil, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, SanitizeError(fmt.Errorf("download failed: %w", &StatusError{StatusCode: resp.StatusCode}))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, SanitizeError(fmt.Errorf("download interrupted: %w", err))
	}
	return n, nil
}

// ValidateOutputPath checks that output stays inside baseDir, that its
// parent directory exists and that it is not an existing non-regular file.
// It returns the cleaned absolute path.
func ValidateOutputPath(baseDir, output string) (string, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	target := output
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrInvalidOutput, output, base)
	}

	parent := filepath.Dir(target)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: directory does not exist: %s", ErrInvalidOutput, parent)
	}
	if info, err := os.Lstat(target); err == nil && !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: output path exists and is not a file: %s", ErrInvalidOutput, output)
	}
	return target, nil
}
