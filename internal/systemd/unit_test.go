package systemd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRenderUnit checks substitution of service name, directory and user.
func TestRenderUnit(t *testing.T) {
	t.Parallel()

	contents, err := RenderUnit(UnitData{
		ServiceName: "bot2",
		AppDir:      "/home/alice/schedule-bot",
		User:        "alice",
	})
	require.NoError(t, err)

	unit := string(contents)
	require.Contains(t, unit, "Description=bot2 Telegram bot")
	require.Contains(t, unit, "User=alice")
	require.Contains(t, unit, "EnvironmentFile=/etc/bot2.env")
	require.Contains(t, unit, "ExecStart=/home/alice/schedule-bot/.venv/bin/python /home/alice/schedule-bot/main.py")
	require.Contains(t, unit, "WantedBy=multi-user.target")
}

// TestUnitPaths verifies naming of unit files and the secrets file.
func TestUnitPaths(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bot2.service", UnitFileName("bot2"))
	require.Equal(t, "/etc/systemd/system/bot2.service", UnitPath(SystemDir, "bot2"))
	require.Equal(t, "/etc/bot2.env", EnvFilePath("bot2"))
}
