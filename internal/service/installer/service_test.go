package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/schedule-bot-deploy/internal/service/common"
)

// fakeRunner records every command so tests can assert on the sequence.
type fakeRunner struct {
	calls      []string
	failPrefix string
	failErr    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	call := common.FormatCommand(name, args...)
	if f.failPrefix != "" && strings.HasPrefix(call, f.failPrefix) {
		return f.failErr
	}

	f.calls = append(f.calls, call)

	return nil
}

// writeAppTree creates an uploaded application directory with requirements.
func writeAppTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print()\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("aiogram\n"), 0o644))

	return dir
}

// writeSecrets provisions a secrets file in a temp location.
func writeSecrets(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schedule-bot.env")
	require.NoError(t, os.WriteFile(path, []byte("BOT_TOKEN=x\nADMIN_USER_ID=1\n"), 0o600))

	return path
}

// Installer tests share the run marker in the system temp directory,
// so they must not run in parallel.

// TestRun_FullSequence verifies the happy-path command order and unit install.
func TestRun_FullSequence(t *testing.T) {
	appDir := writeAppTree(t)
	systemdDir := t.TempDir()
	commands := &fakeRunner{}

	opts := &Options{
		AppDir:     appDir,
		Runner:     commands,
		SystemdDir: systemdDir,
		EnvFile:    writeSecrets(t),
	}

	require.NoError(t, Run(context.Background(), opts))

	venv := filepath.Join(appDir, ".venv")
	require.Equal(t, []string{
		"apt-get update",
		"apt-get install -y python3 python3-venv python3-pip",
		"python3 -m venv " + venv,
		filepath.Join(venv, "bin", "pip") + " install -r " + filepath.Join(appDir, "requirements.txt"),
		"systemctl daemon-reload",
		"systemctl enable --now schedule-bot",
		"systemctl status schedule-bot --no-pager",
	}, commands.calls)

	// The unit landed under the systemd directory with rendered contents.
	unit, err := os.ReadFile(filepath.Join(systemdDir, "schedule-bot.service"))
	require.NoError(t, err)
	require.Contains(t, string(unit), "EnvironmentFile=/etc/schedule-bot.env")

	// The marker was cleaned up.
	_, err = os.Stat(markerPath())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_MissingSecretsAbortsBeforeUnitInstall proves steps 5-6 never execute.
func TestRun_MissingSecretsAbortsBeforeUnitInstall(t *testing.T) {
	appDir := writeAppTree(t)
	systemdDir := t.TempDir()
	commands := &fakeRunner{}

	opts := &Options{
		AppDir:     appDir,
		Runner:     commands,
		SystemdDir: systemdDir,
		EnvFile:    filepath.Join(t.TempDir(), "absent.env"),
	}

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrMissingSecrets)
	require.Contains(t, err.Error(), "BOT_TOKEN")

	// No unit file was written and no systemctl command ran.
	_, statErr := os.Stat(filepath.Join(systemdDir, "schedule-bot.service"))
	require.ErrorIs(t, statErr, os.ErrNotExist)

	for _, call := range commands.calls {
		require.NotContains(t, call, "systemctl")
	}
}

// TestRun_CustomServiceName installs under the chosen unit name.
func TestRun_CustomServiceName(t *testing.T) {
	appDir := writeAppTree(t)
	systemdDir := t.TempDir()
	commands := &fakeRunner{}

	opts := &Options{
		AppDir:      appDir,
		ServiceName: "bot2",
		Runner:      commands,
		SystemdDir:  systemdDir,
		EnvFile:     writeSecrets(t),
	}

	require.NoError(t, Run(context.Background(), opts))

	_, err := os.Stat(filepath.Join(systemdDir, "bot2.service"))
	require.NoError(t, err)
	require.Contains(t, commands.calls, "systemctl enable --now bot2")
}

// TestRun_PrefersUploadedUnitFile installs deploy/<service>.service verbatim.
func TestRun_PrefersUploadedUnitFile(t *testing.T) {
	appDir := writeAppTree(t)
	require.NoError(t, os.MkdirAll(filepath.Join(appDir, "deploy"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(appDir, "deploy", "schedule-bot.service"),
		[]byte("[Unit]\nDescription=uploaded\n"), 0o644))

	systemdDir := t.TempDir()

	opts := &Options{
		AppDir:     appDir,
		Runner:     &fakeRunner{},
		SystemdDir: systemdDir,
		EnvFile:    writeSecrets(t),
	}

	require.NoError(t, Run(context.Background(), opts))

	unit, err := os.ReadFile(filepath.Join(systemdDir, "schedule-bot.service"))
	require.NoError(t, err)
	require.Contains(t, string(unit), "uploaded")
}

// TestRun_PrerequisiteFailureAbortsSequence stops at the first failing step.
func TestRun_PrerequisiteFailureAbortsSequence(t *testing.T) {
	appDir := writeAppTree(t)
	commands := &fakeRunner{failPrefix: "apt-get update", failErr: os.ErrPermission}

	opts := &Options{
		AppDir:     appDir,
		Runner:     commands,
		SystemdDir: t.TempDir(),
		EnvFile:    writeSecrets(t),
	}

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrPrerequisiteInstall)
	require.Empty(t, commands.calls)
}

// TestRun_RepeatedInstallSucceeds re-runs the whole flow over the same tree.
func TestRun_RepeatedInstallSucceeds(t *testing.T) {
	appDir := writeAppTree(t)
	systemdDir := t.TempDir()
	envFile := writeSecrets(t)

	for i := 0; i < 2; i++ {
		opts := &Options{
			AppDir:     appDir,
			Runner:     &fakeRunner{},
			SystemdDir: systemdDir,
			EnvFile:    envFile,
		}
		require.NoError(t, Run(context.Background(), opts))
	}
}

// TestRun_RecoversStaleMarker cleans a leftover marker when no other
// installer process exists and proceeds with the run.
func TestRun_RecoversStaleMarker(t *testing.T) {
	require.NoError(t, writeMarker())

	appDir := writeAppTree(t)

	opts := &Options{
		AppDir:     appDir,
		Runner:     &fakeRunner{},
		SystemdDir: t.TempDir(),
		EnvFile:    writeSecrets(t),
	}

	require.NoError(t, Run(context.Background(), opts))

	_, err := os.Stat(markerPath())
	require.ErrorIs(t, err, os.ErrNotExist)
}
