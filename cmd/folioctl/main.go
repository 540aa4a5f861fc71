// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command folioctl is the operator CLI for a Folio deployment.
//
// # Commands
//
//   - migrate up|down|version: schema migrations through golang-migrate.
//   - repair: reconcile every series and recount every category.
//   - hash-password: produce an ADMIN_PASSWORD_HASH value.
//
// Commands that touch the database read the same environment as cmd/api.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taibuivan/folio/internal/platform/constants"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCommand assembles the command tree.
func newRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "folioctl",
		Short:         "Operate a Folio portfolio backend",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler).With(slog.String("app", "folioctl")))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newMigrateCommand(), newRepairCommand(), newHashPasswordCommand())
	return rootCmd
}
