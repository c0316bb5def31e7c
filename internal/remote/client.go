package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config holds the parameters required to reach the deployment target.
type Config struct {
	// Host is the SSH server name or address.
	Host string
	// Port is the SSH port, usually 22.
	Port int
	// User is the SSH user to authenticate as.
	User string
	// KeyFile is the path to the private key.
	// Empty means <home>/.ssh/id_ed25519.
	KeyFile string
	// KnownHostsFile is the path to the known_hosts file.
	// Empty means <home>/.ssh/known_hosts.
	KnownHostsFile string
	// Timeout bounds connection establishment.
	Timeout time.Duration
}

// Client wraps an SSH connection and its SFTP subsystem for file pushes.
type Client struct {
	// ssh is the underlying SSH connection to the target.
	ssh *ssh.Client
	// sftp is the SFTP client opened on top of the SSH connection.
	sftp *sftp.Client
}

// Endpoint returns the host:port dial address for the configuration.
func (c *Config) Endpoint() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// keyPath resolves the private key path, defaulting to the user's ed25519 key.
func (c *Config) keyPath() (string, error) {
	if c.KeyFile != "" {
		return c.KeyFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".ssh", "id_ed25519"), nil
}

// knownHostsPath resolves the known_hosts path, defaulting to the user's file.
func (c *Config) knownHostsPath() (string, error) {
	if c.KnownHostsFile != "" {
		return c.KnownHostsFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".ssh", "known_hosts"), nil
}

// Dial opens an SSH connection to the target and starts the SFTP subsystem.
// Authentication is public-key only and host keys are verified against known_hosts.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	keyPath, err := cfg.keyPath()
	if err != nil {
		return nil, err
	}

	key, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	knownHostsPath, err := cfg.knownHostsPath()
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("read known_hosts: %w", err)
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	// ssh.Dial has no context variant; dial the TCP connection
	// ourselves so cancellation interrupts connection establishment.
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", cfg.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Endpoint(), err)
	}

	sshConn, channels, requests, err := ssh.NewClientConn(conn, cfg.Endpoint(), sshConfig)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("ssh handshake with %s: %w", cfg.Endpoint(), err)
	}

	sshClient := ssh.NewClient(sshConn, channels, requests)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()

		return nil, fmt.Errorf("open sftp subsystem: %w", err)
	}

	return &Client{ssh: sshClient, sftp: sftpClient}, nil
}

// EnsureDir creates the remote directory and any missing parents.
func (c *Client) EnsureDir(_ context.Context, remotePath string) error {
	if err := c.sftp.MkdirAll(remotePath); err != nil {
		return fmt.Errorf("mkdir %s: %w", remotePath, err)
	}

	return nil
}

// CopyFile uploads a local file to the remote path, preserving the local file mode.
func (c *Client) CopyFile(_ context.Context, localPath, remotePath string) error {
	local, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}

	defer func() {
		_ = local.Close()
	}()

	info, err := local.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	remoteFile, err := c.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create %s: %w", remotePath, err)
	}

	if _, err = io.Copy(remoteFile, local); err != nil {
		_ = remoteFile.Close()

		return fmt.Errorf("copy to %s: %w", remotePath, err)
	}

	if err = remoteFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", remotePath, err)
	}

	if err = c.sftp.Chmod(remotePath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", remotePath, err)
	}

	return nil
}

// WriteFile uploads in-memory contents to the remote path with the given mode.
func (c *Client) WriteFile(_ context.Context, remotePath string, contents []byte, mode os.FileMode) error {
	remoteFile, err := c.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create %s: %w", remotePath, err)
	}

	if _, err = remoteFile.Write(contents); err != nil {
		_ = remoteFile.Close()

		return fmt.Errorf("write %s: %w", remotePath, err)
	}

	if err = remoteFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", remotePath, err)
	}

	if err = c.sftp.Chmod(remotePath, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", remotePath, err)
	}

	return nil
}

// Close shuts down the SFTP subsystem and the SSH connection.
func (c *Client) Close() error {
	sftpErr := c.sftp.Close()
	sshErr := c.ssh.Close()

	if sftpErr != nil {
		return sftpErr
	}

	return sshErr
}

// Join joins remote path elements with forward slashes regardless of the
// operator's platform.
func Join(elem ...string) string {
	return path.Join(elem...)
}
