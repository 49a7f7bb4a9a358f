package environment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrManifestNotFound is returned when no compose manifest is found.
var ErrManifestNotFound = errors.New("compose manifest not found")

// ManifestNames are the file names searched for, in order of preference.
var ManifestNames = []string{"compose.yaml", "compose.yml", "docker-compose.yml", "docker-compose.yaml"}

// FindManifest returns explicitPath if set and present. Otherwise it searches
// startDir and its parents, stopping at the home directory, a directory
// containing .git, or the filesystem root.
func FindManifest(startDir, explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("%w: %w", ErrManifestNotFound, err)
		}
		return explicitPath, nil
	}

	homeDir, _ := os.UserHomeDir()

	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		for _, name := range ManifestNames {
			candidate := filepath.Join(currentDir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		if currentDir == homeDir {
			break
		}

		if _, err := os.Stat(filepath.Join(currentDir, ".git")); err == nil {
			break
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", ErrManifestNotFound
}
