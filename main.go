// Package main is the entry point for the jiractl CLI application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielolaszy/jiractl/cmd"
	"github.com/danielolaszy/jiractl/internal/jira"
	"github.com/danielolaszy/jiractl/internal/logging"
	"github.com/danielolaszy/jiractl/internal/output"
)

// main executes the root command and maps any error to an exit code.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		logging.Debug("command execution failed", "error", jira.Sanitize(err.Error()))
		output.New(os.Stdout, os.Stderr, output.Human).Error(jira.Sanitize(err.Error()), cmd.Suggestion(err))
	}
	os.Exit(cmd.ExitCode(err))
}
