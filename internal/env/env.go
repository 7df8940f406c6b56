package env

import (
	"os"
	"path/filepath"
)

// Set by the server command when running in daemon mode.
var Daemon bool = false

// (default: %USERPROFILE%/.panelix-setup on Windows, $HOME/.panelix-setup on Linux)
var SetupDir string = GetSetupDir()

// Default locations of a system-level Panelix installation. The install
// command accepts overrides; these are the documented defaults.
const (
	DefaultInstallDir = "/opt/panelix"
	DefaultDataDir    = "/var/lib/panelix"
	DefaultLogDir     = "/var/log/panelix"
	DefaultConfigFile = "/etc/panelix/panelix.env"
	DefaultRunAsUser  = "panelix"
)

/**
 * Get panelix-setup directory path
 * @returns {string} Returns panelix-setup directory path
 */
func GetSetupDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".panelix-setup")
}
