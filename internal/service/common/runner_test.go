//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFormatCommand checks rendering with and without arguments.
func TestFormatCommand(t *testing.T) {
	t.Parallel()

	require.Equal(t, "systemctl", FormatCommand("systemctl"))
	require.Equal(t, "systemctl daemon-reload", FormatCommand("systemctl", "daemon-reload"))
}

// TestExecRunner verifies success and failure propagation for real commands.
func TestExecRunner(t *testing.T) {
	t.Parallel()

	r := NewExecRunner()
	ctx := context.Background()

	require.NoError(t, r.Run(ctx, "true"))

	err := r.Run(ctx, "false")
	require.Error(t, err)
	require.Contains(t, err.Error(), "false")
}
