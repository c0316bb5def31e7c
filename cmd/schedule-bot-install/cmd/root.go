package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/schedule-bot-deploy/internal/logger"
	"github.com/oshokin/schedule-bot-deploy/internal/service/installer"
	"github.com/oshokin/schedule-bot-deploy/internal/version"
)

var (
	// logLevel is the minimum log level for console output.
	logLevel string

	// rootCmd represents the base command for installing the bot on this machine.
	rootCmd = &cobra.Command{
		Use:   "schedule-bot-install [app-dir] [service-name]",
		Short: "Install the uploaded schedule bot as a systemd service.",
		Long: `Install the uploaded schedule bot on this machine and start it.

Installs python3 with venv and pip, creates the virtual environment under
<app-dir>/.venv, installs requirements.txt into it, verifies the secrets file
/etc/<service-name>.env exists, installs the systemd unit and enables it.
Defaults: app-dir /home/<current-user>/schedule-bot, service schedule-bot.

The sequence is fail-fast: the first failing step aborts the rest with a
non-zero exit code and no cleanup. Run under an account that may install
packages and manage systemd, typically via sudo.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &installer.Options{}
			if len(args) > 0 {
				options.AppDir = args[0]
			}

			if len(args) > 1 {
				options.ServiceName = args[1]
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the schedule-bot-install CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "minimum log level (debug, info, warn, error)")
}
