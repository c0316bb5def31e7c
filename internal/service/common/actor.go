//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies the host and user a deployment flow runs as.
// Defaults for the application directory and logging context derive from it,
// resolved once at the entry point rather than deep inside the flows.
type Actor struct {
	// Hostname is the machine the flow is executing on.
	Hostname string
	// Username is the account the flow is executing as.
	Username string
	// HomeDir is the account's home directory.
	HomeDir string
}

// DetectActor gathers host and user information for defaults and logging.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
		HomeDir:  currentUser.HomeDir,
	}, nil
}
