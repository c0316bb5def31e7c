package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds connection and deployment parameters shared by the deploy binaries.
type Config struct {
	// Server is the SSH host the application is deployed to.
	Server string `yaml:"server"`
	// Port is the SSH port on the deployment target.
	Port int `yaml:"port"`
	// User is the SSH user owning the application directory on the target.
	User string `yaml:"user"`
	// KeyFile is the path to the SSH private key used for authentication.
	KeyFile string `yaml:"key_file"`
	// KnownHostsFile is the path to the known_hosts file for host verification.
	KnownHostsFile string `yaml:"known_hosts"`
	// RemoteDir is the application directory on the target.
	// Empty means derive /home/<user>/<service_name>.
	RemoteDir string `yaml:"remote_dir"`
	// ServiceName is the systemd unit name the bot runs under.
	ServiceName string `yaml:"service_name"`
	// Timeout is the duration for SSH connection establishment.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "schedule-bot-deploy.yaml"

	// DefaultServiceName is the systemd unit the bot is installed as.
	DefaultServiceName = "schedule-bot"

	// DefaultSSHPort is used when no port is configured.
	DefaultSSHPort = 22

	// DefaultTimeout is the default duration for SSH connection establishment.
	DefaultTimeout = 15 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPortOutOfRange is returned when the SSH port is not a valid TCP port.
	errPortOutOfRange = errors.New("ssh port must be between 1 and 65535")
)

// Default returns a configuration populated with defaults only.
// Callers fill in server and user from flags.
func Default() *Config {
	return &Config{
		Port:        DefaultSSHPort,
		ServiceName: DefaultServiceName,
		Timeout:     DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadIfPresent behaves like Load but returns defaults when the file does not exist.
// Both CLIs work from flags alone, so a settings file is optional.
func LoadIfPresent(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	if _, err := os.Stat(filepath.Clean(path)); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return Load(path)
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultSSHPort
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: %d", errPortOutOfRange, cfg.Port)
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// RemoteAppDir returns the application directory on the target,
// deriving the conventional home-relative path when none is configured.
func (c *Config) RemoteAppDir() string {
	if c.RemoteDir != "" {
		return c.RemoteDir
	}

	return "/home/" + c.User + "/" + c.ServiceName
}
