package uploader

import (
	"crypto/sha512"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGetFileChecksum matches a directly computed SHA-512 digest.
func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f.txt")
	body := []byte("checksum me")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	sum, err := GetFileChecksum(path)
	require.NoError(t, err)

	expected := sha512.Sum512(body)
	require.Equal(t, expected[:], sum)
	require.NotEmpty(t, EncodeChecksum(sum))
}

// TestManifestFiles pins the fixed upload set.
func TestManifestFiles(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"main.py", "requirements.txt", "README.md", ".env.example"},
		ManifestFiles())
}
