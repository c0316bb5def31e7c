package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/schedule-bot-deploy/internal/config"
	"github.com/oshokin/schedule-bot-deploy/internal/logger"
	"github.com/oshokin/schedule-bot-deploy/internal/service/uploader"
	"github.com/oshokin/schedule-bot-deploy/internal/version"
)

var (
	// configPath is the path to the optional settings YAML file.
	configPath string
	// server is the SSH host to push to.
	server string
	// sshUser is the SSH user on the target.
	sshUser string
	// remoteDir is the application directory on the target.
	remoteDir string
	// sshPort is the SSH port on the target.
	sshPort int
	// keyFile is the SSH private key path.
	keyFile string
	// serviceName is the systemd unit name the bot runs under.
	serviceName string
	// logLevel is the minimum log level for console output.
	logLevel string

	// rootCmd represents the base command for pushing the bot to the target.
	rootCmd = &cobra.Command{
		Use:   "schedule-bot-upload",
		Short: "Upload the schedule bot to the deployment target.",
		Long: `Upload the schedule bot's files and its systemd unit to a remote host.

Ensures the remote application directory and its deploy subdirectory exist,
then copies main.py, requirements.txt, README.md and .env.example into place
over SFTP, followed by the unit file and a checksum manifest of the upload.
Every manifest file must exist locally before any network activity starts.
The transfer is not atomic; a failure mid-way leaves the remote directory
partially written.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &uploader.Options{
				ConfigPath:  configPath,
				Server:      server,
				User:        sshUser,
				RemoteDir:   remoteDir,
				Port:        sshPort,
				KeyFile:     keyFile,
				ServiceName: serviceName,
			}

			return uploader.Run(ctx, options)
		},
	}
)

// Execute runs the schedule-bot-upload CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&server, "server", "s", "", "SSH host to deploy to")
	rootCmd.Flags().StringVarP(&sshUser, "user", "u", "", "SSH user on the target")
	rootCmd.Flags().StringVarP(&remoteDir, "remote-dir", "r", "", "application directory on the target (default /home/<user>/schedule-bot)")
	rootCmd.Flags().IntVarP(&sshPort, "port", "p", 0, "SSH port on the target (default 22)")
	rootCmd.Flags().StringVarP(&keyFile, "key", "k", "", "SSH private key path (default ~/.ssh/id_ed25519)")
	rootCmd.Flags().StringVar(&serviceName, "service", "", "systemd unit name (default schedule-bot)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "minimum log level (debug, info, warn, error)")
}
