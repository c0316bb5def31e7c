package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/schedule-bot-deploy/internal/config"
	"github.com/oshokin/schedule-bot-deploy/internal/logger"
	"github.com/oshokin/schedule-bot-deploy/internal/remote"
	"github.com/oshokin/schedule-bot-deploy/internal/systemd"
)

// Options are inputs accepted by the uploader entry point.
// Flag values override settings loaded from the optional YAML file.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Server is the SSH host to push to. Required.
	Server string
	// User is the SSH user on the target. Required.
	User string
	// RemoteDir is the application directory on the target.
	// Empty means /home/<user>/<service>.
	RemoteDir string
	// Port overrides the SSH port when non-zero.
	Port int
	// KeyFile overrides the SSH private key path when non-empty.
	KeyFile string
	// ServiceName overrides the systemd unit name when non-empty.
	ServiceName string
	// LocalDir is the bot working tree the manifest files are read from.
	// Empty means the current directory.
	LocalDir string

	// Transport substitutes the SSH/SFTP transport. Tests inject fakes here;
	// when nil the uploader dials the target itself.
	Transport Transport
}

// Transport is the capability the uploader needs from the remote channel.
// *remote.Client satisfies it.
type Transport interface {
	EnsureDir(ctx context.Context, path string) error
	CopyFile(ctx context.Context, localPath, remotePath string) error
	WriteFile(ctx context.Context, remotePath string, contents []byte, mode os.FileMode) error
	Close() error
}

var (
	// ErrConnection indicates the deployment target is unreachable or
	// authentication failed.
	ErrConnection = errors.New("cannot connect to deployment target")
	// ErrTransfer indicates a missing local file or an unwritable remote path.
	ErrTransfer = errors.New("file transfer failed")

	// errServerRequired is returned when no server is provided.
	errServerRequired = errors.New("server must be provided")
	// errUserRequired is returned when no user is provided.
	errUserRequired = errors.New("user must be provided")
)

// unitFileMode is applied to generated files pushed to the target.
const unitFileMode os.FileMode = 0o644

// runner holds the resolved state for a single upload execution.
type runner struct {
	cfg       *config.Config // Resolved deployment settings.
	localDir  string         // Bot working tree on the operator machine.
	transport Transport      // SSH/SFTP channel to the target.
	ownsConn  bool           // Whether Close is ours to call.
}

// Run executes the upload flow and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "schedule-bot-upload")

	up, err := newRunner(opts)
	if err != nil {
		return err
	}

	if err = up.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Upload failed", "error", err)
		return err
	}

	logger.Info(ctx, "Upload completed")

	return nil
}

// newRunner resolves settings and validates inputs. No network activity here.
func newRunner(opts *Options) (*runner, error) {
	cfg, err := config.LoadIfPresent(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.Server != "" {
		cfg.Server = opts.Server
	}

	if opts.User != "" {
		cfg.User = opts.User
	}

	if opts.RemoteDir != "" {
		cfg.RemoteDir = opts.RemoteDir
	}

	if opts.Port != 0 {
		cfg.Port = opts.Port
	}

	if opts.KeyFile != "" {
		cfg.KeyFile = opts.KeyFile
	}

	if opts.ServiceName != "" {
		cfg.ServiceName = opts.ServiceName
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	if cfg.Server == "" {
		return nil, errServerRequired
	}

	if cfg.User == "" {
		return nil, errUserRequired
	}

	localDir := opts.LocalDir
	if localDir == "" {
		localDir = "."
	}

	return &runner{
		cfg:       cfg,
		localDir:  localDir,
		transport: opts.Transport,
	}, nil
}

// run pushes the manifest, the unit file and the upload description.
func (u *runner) run(ctx context.Context) error {
	// Fail before any network activity when a manifest file is missing.
	if err := u.validateLocalFiles(); err != nil {
		return err
	}

	desc, err := u.describeUpload()
	if err != nil {
		return err
	}

	if err = u.connect(ctx); err != nil {
		return err
	}

	defer u.disconnect()

	remoteDir := u.cfg.RemoteAppDir()
	deployDir := remote.Join(remoteDir, DeploySubdir)

	logger.InfoKV(ctx, "Ensuring remote directories", "app_dir", remoteDir, "deploy_dir", deployDir)

	if err = u.transport.EnsureDir(ctx, remoteDir); err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	if err = u.transport.EnsureDir(ctx, deployDir); err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	if err = u.pushManifest(ctx, remoteDir); err != nil {
		return err
	}

	if err = u.pushUnitFile(ctx, deployDir); err != nil {
		return err
	}

	return u.pushDescription(ctx, deployDir, desc)
}

// validateLocalFiles ensures every manifest file exists in the working tree.
func (u *runner) validateLocalFiles() error {
	for _, name := range ManifestFiles() {
		localPath := filepath.Join(u.localDir, name)
		if _, err := os.Stat(localPath); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransfer, localPath, err)
		}
	}

	return nil
}

// describeUpload computes checksums for the manifest files.
func (u *runner) describeUpload() (*Description, error) {
	desc := NewDescription()

	for _, name := range ManifestFiles() {
		sum, err := GetFileChecksum(filepath.Join(u.localDir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: checksum %s: %w", ErrTransfer, name, err)
		}

		desc.Files[name] = EncodeChecksum(sum)
	}

	return desc, nil
}

// connect dials the target unless a transport was injected.
func (u *runner) connect(ctx context.Context) error {
	if u.transport != nil {
		return nil
	}

	client, err := remote.Dial(ctx, &remote.Config{
		Host:           u.cfg.Server,
		Port:           u.cfg.Port,
		User:           u.cfg.User,
		KeyFile:        u.cfg.KeyFile,
		KnownHostsFile: u.cfg.KnownHostsFile,
		Timeout:        u.cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	u.transport = client
	u.ownsConn = true

	return nil
}

// disconnect closes the transport when the runner opened it.
func (u *runner) disconnect() {
	if u.ownsConn {
		_ = u.transport.Close()
	}
}

// pushManifest copies the fixed manifest files into the application directory.
func (u *runner) pushManifest(ctx context.Context, remoteDir string) error {
	for _, name := range ManifestFiles() {
		localPath := filepath.Join(u.localDir, name)
		remotePath := remote.Join(remoteDir, name)

		logger.InfoKV(ctx, "Uploading file", "file", name, "to", remotePath)

		if err := u.transport.CopyFile(ctx, localPath, remotePath); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransfer, name, err)
		}
	}

	return nil
}

// pushUnitFile copies the working-tree unit file when one exists, otherwise
// uploads the rendered embedded template.
func (u *runner) pushUnitFile(ctx context.Context, deployDir string) error {
	unitName := systemd.UnitFileName(u.cfg.ServiceName)
	remotePath := remote.Join(deployDir, unitName)
	localPath := filepath.Join(u.localDir, DeploySubdir, unitName)

	if _, err := os.Stat(localPath); err == nil {
		logger.InfoKV(ctx, "Uploading unit file", "file", localPath, "to", remotePath)

		if err = u.transport.CopyFile(ctx, localPath, remotePath); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransfer, unitName, err)
		}

		return nil
	}

	logger.InfoKV(ctx, "No local unit file, uploading rendered template", "to", remotePath)

	contents, err := systemd.RenderUnit(systemd.UnitData{
		ServiceName: u.cfg.ServiceName,
		AppDir:      u.cfg.RemoteAppDir(),
		User:        u.cfg.User,
	})
	if err != nil {
		return err
	}

	if err = u.transport.WriteFile(ctx, remotePath, contents, unitFileMode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransfer, unitName, err)
	}

	return nil
}

// pushDescription uploads the checksum manifest next to the unit file.
func (u *runner) pushDescription(ctx context.Context, deployDir string, desc *Description) error {
	contents, err := desc.Marshal()
	if err != nil {
		return err
	}

	remotePath := remote.Join(deployDir, ChecksumManifestFilename)

	logger.InfoKV(ctx, "Uploading checksum manifest", "to", remotePath)

	if err = u.transport.WriteFile(ctx, remotePath, contents, unitFileMode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransfer, ChecksumManifestFilename, err)
	}

	return nil
}
