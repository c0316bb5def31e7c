package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/schedule-bot-deploy/internal/logger"
)

// MarkerFilename marks that an installer is running right now to avoid
// concurrent installs mutating system state at the same time.
const MarkerFilename = "schedule-bot-install-marker.bin"

// markerPath returns the marker location in the system temp directory.
func markerPath() string {
	return filepath.Join(os.TempDir(), MarkerFilename)
}

// IsInstallerRunningNow checks presence of the marker and attempts recovery
// when it was left behind by a crashed run.
func IsInstallerRunningNow(ctx context.Context) bool {
	if _, err := os.Stat(markerPath()); err != nil {
		return false
	}

	running, err := anotherInstallerProcess()
	if err != nil {
		logger.Warnf(ctx, "Could not inspect the process list: %v", err)
		// Marker present and the process list is unknown, stay safe.
		return true
	}

	if running {
		return true
	}

	logger.Info(ctx, "Found a stale install marker, cleaning up")

	if err := os.Remove(markerPath()); err != nil {
		logger.Warnf(ctx, "Could not remove the stale marker: %v", err)
		return true
	}

	return false
}

// anotherInstallerProcess reports whether a different installer process exists.
func anotherInstallerProcess() (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if strings.HasPrefix(process.Executable(), "schedule-bot-install") {
			return true, nil
		}
	}

	return false, nil
}

// writeMarker creates the marker file for this run.
func writeMarker() error {
	marker, err := os.Create(markerPath())
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeMarker deletes the marker file, best effort.
func removeMarker() {
	if _, err := os.Stat(markerPath()); err == nil {
		_ = os.Remove(markerPath())
	}
}
