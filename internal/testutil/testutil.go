package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

// ReadFile returns the content of path as a string.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // G304: test file with controlled path
	require.NoError(t, err, "Failed to read %s", path)
	return string(data)
}
