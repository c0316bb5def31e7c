package remote

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestEndpoint verifies host:port composition, including IPv6 literals.
func TestEndpoint(t *testing.T) {
	t.Parallel()

	cfg := &Config{Host: "host1", Port: 22}
	require.Equal(t, "host1:22", cfg.Endpoint())

	cfg = &Config{Host: "::1", Port: 2222}
	require.Equal(t, "[::1]:2222", cfg.Endpoint())
}

// TestJoin ensures remote paths use forward slashes on every platform.
func TestJoin(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/home/alice/schedule-bot/deploy", Join("/home/alice/schedule-bot", "deploy"))
	require.Equal(t, "a/b/c.py", Join("a", "b", "c.py"))
}

// TestDialMissingKey fails before any network activity when the key is absent.
func TestDialMissingKey(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Host:    "unreachable.invalid",
		Port:    22,
		User:    "alice",
		KeyFile: filepath.Join(t.TempDir(), "no-such-key"),
		Timeout: time.Second,
	}

	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "read private key")
}
