package uploader

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/schedule-bot-deploy/internal/version"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DeploySubdir is the subdirectory holding the unit file and upload metadata.
	DeploySubdir = "deploy"

	// ChecksumManifestFilename is the upload metadata file pushed alongside the bot.
	ChecksumManifestFilename = "deploy-manifest.yaml"

	// DefaultChecksumFunction is used to calculate uploaded file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var errHashUnavailable = errors.New("hash function unavailable")

// ManifestFiles returns the fixed set of files every upload pushes to the
// application directory on the target.
func ManifestFiles() []string {
	return []string{
		"main.py",
		"requirements.txt",
		"README.md",
		".env.example",
	}
}

// Description records what an upload pushed: the tool version and a
// base64-encoded checksum per file. It lands next to the unit file on the
// target so an operator can tell which upload produced the tree.
type Description struct {
	// VersionNumber is the deploy tool version that produced the upload.
	VersionNumber string `yaml:"version"`
	// Files maps file names to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description initialized with defaults.
func NewDescription() *Description {
	return &Description{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, len(ManifestFiles())),
	}
}

// Marshal renders the description as YAML.
func (d *Description) Marshal() ([]byte, error) {
	contents, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal upload description: %w", err)
	}

	return contents, nil
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// EncodeChecksum renders checksum bytes the way the description stores them.
func EncodeChecksum(sum []byte) string {
	return base64.StdEncoding.EncodeToString(sum)
}
