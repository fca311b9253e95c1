package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireValidProject asserts that the development environment is scaffolded
// under projectDir.
func RequireValidProject(t *testing.T, projectDir string) {
	t.Helper()

	require.DirExists(t, filepath.Join(projectDir, "devenv", "bin"), "devenv/bin directory should exist")
	require.DirExists(t, filepath.Join(projectDir, "internal", "metastore", "pg", "migrations"), "migrations directory should exist")
	require.DirExists(t, filepath.Join(projectDir, "internal", "metastore", "pg", "queries"), "queries directory should exist")

	require.FileExists(t, filepath.Join(projectDir, "devenv", "docker-compose.yml"), "docker-compose.yml should exist")
	require.FileExists(t, filepath.Join(projectDir, "config.example.yaml"), "config.example.yaml should exist")
	require.FileExists(t, filepath.Join(projectDir, "sqlc.yaml"), "sqlc.yaml should exist")
}

// RequireFileExists asserts that a file exists and optionally checks its content
func RequireFileExists(t *testing.T, path string, checks ...func(content string)) {
	t.Helper()

	require.FileExists(t, path, "File should exist: %s", path)

	if len(checks) > 0 {
		content, err := os.ReadFile(path)
		require.NoError(t, err, "Failed to read file: %s", path)

		contentStr := string(content)
		for _, check := range checks {
			check(contentStr)
		}
	}
}

// RequireFileContains returns a check function that verifies file contains text
func RequireFileContains(t *testing.T, expected string) func(string) {
	return func(content string) {
		require.Contains(t, content, expected, "File should contain: %s", expected)
	}
}

// RequireFileNotContains returns a check function that verifies file doesn't contain text
func RequireFileNotContains(t *testing.T, unexpected string) func(string) {
	return func(content string) {
		require.NotContains(t, content, unexpected, "File should not contain: %s", unexpected)
	}
}

// RequireNoFile asserts that path does not exist.
func RequireNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "File should not exist: %s", path)
}

// RequireFilePermissions asserts the permission bits of path.
func RequireFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "Failed to stat file: %s", path)
	require.Equal(t, expectedMode, info.Mode().Perm(), "Unexpected permissions for %s", path)
}
