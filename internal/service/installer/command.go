package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/schedule-bot-deploy/internal/config"
	"github.com/oshokin/schedule-bot-deploy/internal/logger"
	"github.com/oshokin/schedule-bot-deploy/internal/service/common"
	"github.com/oshokin/schedule-bot-deploy/internal/systemd"
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// AppDir is the application directory on this machine.
	// Empty means /home/<current-user>/<service>.
	AppDir string
	// ServiceName is the systemd unit to install. Empty means schedule-bot.
	ServiceName string

	// Runner substitutes the external command runner. Tests inject fakes
	// here; when nil commands run through os/exec.
	Runner common.Runner
	// SystemdDir overrides the unit install directory. Tests point it at a
	// temporary directory; empty means /etc/systemd/system.
	SystemdDir string
	// EnvFile overrides the secrets file location. Tests point it at a
	// temporary file; empty means /etc/<service>.env.
	EnvFile string
}

var (
	// ErrPrerequisiteInstall indicates the system package installation failed.
	ErrPrerequisiteInstall = errors.New("prerequisite installation failed")
	// ErrEnvironment indicates virtualenv creation or dependency install failed.
	ErrEnvironment = errors.New("runtime environment setup failed")
	// ErrMissingSecrets indicates the required environment file is absent.
	ErrMissingSecrets = errors.New("secrets file is missing")
	// ErrServiceInstall indicates unit installation or a systemd command failed.
	ErrServiceInstall = errors.New("service installation failed")

	// errInstallerAlreadyRunning is returned when another install is in progress.
	errInstallerAlreadyRunning = errors.New("the installer is already running")
)

// unitFileMode is applied to the unit file installed under systemd's directory.
const unitFileMode os.FileMode = 0o644

// runner holds the resolved state for a single install execution.
// The flow is a linear sequence; the first failing step aborts the rest.
type runner struct {
	appDir      string        // Application directory holding the bot.
	serviceName string        // Systemd unit name.
	systemdDir  string        // Unit install directory.
	envFile     string        // Required secrets file.
	commands    common.Runner // External command capability.
}

// Run executes the install flow and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "schedule-bot-install")

	ins, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer removeMarker()

	if err = ins.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Install completed", "service", ins.serviceName)

	return nil
}

// newRunner resolves defaults, refuses concurrent runs and writes the marker.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if IsInstallerRunningNow(ctx) {
		return nil, errInstallerAlreadyRunning
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}

	appDir := opts.AppDir
	if appDir == "" {
		actor, err := common.DetectActor()
		if err != nil {
			return nil, err
		}

		appDir = filepath.Join(actor.HomeDir, serviceName)
	}

	systemdDir := opts.SystemdDir
	if systemdDir == "" {
		systemdDir = systemd.SystemDir
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = systemd.EnvFilePath(serviceName)
	}

	commands := opts.Runner
	if commands == nil {
		commands = common.NewExecRunner()
	}

	if err := writeMarker(); err != nil {
		return nil, err
	}

	return &runner{
		appDir:      appDir,
		serviceName: serviceName,
		systemdDir:  systemdDir,
		envFile:     envFile,
		commands:    commands,
	}, nil
}

// run walks the install sequence:
// 1) System prerequisites.
// 2) Virtualenv creation.
// 3) Dependency install.
// 4) Secrets check.
// 5) Unit install.
// 6) Service start.
func (i *runner) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Installing system prerequisites", "app_dir", i.appDir)

	if err := i.installPrerequisites(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Creating the virtual environment")

	if err := i.createEnvironment(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Installing bot dependencies")

	if err := i.installDependencies(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Verifying the secrets file", "path", i.envFile)

	if err := i.verifySecrets(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Installing the unit file", "unit", systemd.UnitFileName(i.serviceName))

	if err := i.installUnit(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Starting the service", "service", i.serviceName)

	return i.startService(ctx)
}

// installPrerequisites installs the interpreter, venv tooling and pip.
func (i *runner) installPrerequisites(ctx context.Context) error {
	if err := i.commands.Run(ctx, "apt-get", "update"); err != nil {
		return fmt.Errorf("%w: %w", ErrPrerequisiteInstall, err)
	}

	err := i.commands.Run(ctx, "apt-get", "install", "-y",
		"python3", "python3-venv", "python3-pip")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrerequisiteInstall, err)
	}

	return nil
}

// createEnvironment creates the virtualenv. Re-running over an existing
// environment is safe; python refreshes it in place.
func (i *runner) createEnvironment(ctx context.Context) error {
	if err := i.commands.Run(ctx, "python3", "-m", "venv", i.venvDir()); err != nil {
		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}

	return nil
}

// installDependencies installs the declared requirements into the virtualenv.
func (i *runner) installDependencies(ctx context.Context) error {
	pip := filepath.Join(i.venvDir(), "bin", "pip")
	requirements := filepath.Join(i.appDir, "requirements.txt")

	if err := i.commands.Run(ctx, pip, "install", "-r", requirements); err != nil {
		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}

	return nil
}

// verifySecrets checks that the operator provisioned the environment file.
// This is the only failure with a remediation instruction: the file is never
// managed by the deploy flow and the service cannot start without it.
func (i *runner) verifySecrets() error {
	if _, err := os.Stat(i.envFile); err != nil {
		return fmt.Errorf(
			"%w: create %s with at least BOT_TOKEN and ADMIN_USER_ID, then re-run the installer",
			ErrMissingSecrets, i.envFile)
	}

	return nil
}

// installUnit copies the uploaded unit file into the systemd directory,
// falling back to the embedded template when no file was uploaded.
func (i *runner) installUnit() error {
	unitName := systemd.UnitFileName(i.serviceName)

	contents, err := os.ReadFile(filepath.Clean(filepath.Join(i.appDir, "deploy", unitName)))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrServiceInstall, err)
		}

		actor, actorErr := common.DetectActor()
		if actorErr != nil {
			return fmt.Errorf("%w: %w", ErrServiceInstall, actorErr)
		}

		contents, err = systemd.RenderUnit(systemd.UnitData{
			ServiceName: i.serviceName,
			AppDir:      i.appDir,
			User:        actor.Username,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrServiceInstall, err)
		}
	}

	unitPath := systemd.UnitPath(i.systemdDir, i.serviceName)
	if err = os.WriteFile(unitPath, contents, unitFileMode); err != nil {
		return fmt.Errorf("%w: %w", ErrServiceInstall, err)
	}

	return nil
}

// startService reloads systemd, enables the unit and reports its status.
// The status query's outcome decides the final exit code.
func (i *runner) startService(ctx context.Context) error {
	if err := i.commands.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("%w: %w", ErrServiceInstall, err)
	}

	if err := i.commands.Run(ctx, "systemctl", "enable", "--now", i.serviceName); err != nil {
		return fmt.Errorf("%w: %w", ErrServiceInstall, err)
	}

	if err := i.commands.Run(ctx, "systemctl", "status", i.serviceName, "--no-pager"); err != nil {
		return fmt.Errorf("%w: %w", ErrServiceInstall, err)
	}

	return nil
}

// venvDir returns the virtualenv root inside the application directory.
func (i *runner) venvDir() string {
	return filepath.Join(i.appDir, ".venv")
}
