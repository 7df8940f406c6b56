package models

import (
	"time"
)

/**
 * Persisted description of an existing installation
 * @property {string} version - Semantic version currently installed
 * @property {string} installPath - Installation root (holds the VERSION file)
 * @property {string} dataPath - Mutable application data directory
 * @description
 * - Read at the start of every orchestrator/migration run
 * - Written only after the operation that changed it has been verified
 */
type InstalledState struct {
	Version     string `json:"version"`
	InstallPath string `json:"installPath"`
	DataPath    string `json:"dataPath"`
}

/**
 * Point-in-time copy of mutable installation state
 * @description
 * - Created before any migration step runs
 * - Never deleted automatically; pruning is an explicit operator action
 */
type BackupSnapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	SourcePaths []string  `json:"sourcePaths"`
	BackupPath  string    `json:"backupPath"`
}

// ServerState describes the running status server, reported by /healthz
// and the state endpoint.
type ServerState struct {
	StartTime time.Time      `json:"startTime"`
	Version   string         `json:"version"`
	Platform  PlatformInfo   `json:"platform"`
	Installed *InstalledState `json:"installed,omitempty"`
}
