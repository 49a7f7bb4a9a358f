package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/composecert/pkg/testutil"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	testutil.WriteFile(t, filepath.Dir(path), filepath.Base(path), "services: {}\n")
}

func TestFindManifest_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	manifest := filepath.Join(tmpDir, "stack.yml")
	writeFile(t, manifest)

	found, err := FindManifest(tmpDir, manifest)
	require.NoError(t, err)
	assert.Equal(t, manifest, found)

	_, err = FindManifest(tmpDir, filepath.Join(tmpDir, "nonexistent.yml"))
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestFindManifest_TraverseUp(t *testing.T) {
	tmpDir := t.TempDir()
	subdir := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(subdir, 0o700))
	manifest := filepath.Join(tmpDir, "docker-compose.yml")
	writeFile(t, manifest)

	found, err := FindManifest(subdir, "")
	require.NoError(t, err)
	assert.Equal(t, manifest, found)
}

func TestFindManifest_PrefersComposeYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "docker-compose.yml"))
	writeFile(t, filepath.Join(tmpDir, "compose.yaml"))

	found, err := FindManifest(tmpDir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "compose.yaml"), found)
}

func TestFindManifest_StopAtGit(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, ".git"), 0o700))
	writeFile(t, filepath.Join(tmpDir, "compose.yaml"))

	_, err := FindManifest(projectDir, "")
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestFindManifest_IgnoresDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "compose.yaml"), 0o700))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".git"), 0o700))

	_, err := FindManifest(tmpDir, "")
	assert.ErrorIs(t, err, ErrManifestNotFound)
}
