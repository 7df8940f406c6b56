package services

import (
	"os"
	"path/filepath"
	"strings"

	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

// VersionFileName is the single-line state file at the installation root.
const VersionFileName = "VERSION"

/**
 * Read the persisted installation state
 * @param {string} installDir - Installation root
 * @returns {*models.InstalledState} nil when no installation exists
 * @description
 * - The VERSION file is the sole integration point between runs; its
 *   absence means fresh install, a malformed version is an error
 */
func ReadInstalledState(installDir, dataDir string) (*models.InstalledState, error) {
	data, err := os.ReadFile(filepath.Join(installDir, VersionFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(string(data))
	if _, err := utils.ParseVersion(raw); err != nil {
		return nil, err
	}
	return &models.InstalledState{
		Version:     raw,
		InstallPath: installDir,
		DataPath:    dataDir,
	}, nil
}

// WriteVersionFile persists the installed version, owner-readable.
func WriteVersionFile(installDir, version string) error {
	return os.WriteFile(filepath.Join(installDir, VersionFileName), []byte(version+"\n"), 0644)
}
