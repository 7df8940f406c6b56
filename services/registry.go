package services

import (
	"fmt"
	"os"
	"path/filepath"
)

/**
 * Registry returns the fixed, compile-time list of data migrations
 * @description
 * - A fixed registry replaces scanning a scripts directory at runtime:
 *   every step is an ordinary function value and the set of steps per
 *   release is known when the binary is built
 * - Steps are listed in release order but the planner sorts them, so
 *   ordering here is a convention, not a requirement
 */
func Registry() []MigrationStep {
	return []MigrationStep{
		{
			Version: "1.1.0",
			Name:    "split uploads out of the flat data directory",
			Apply:   migrateUploadsLayout,
		},
		{
			Version: "1.2.0",
			Name:    "introduce per-site cache directories",
			Apply:   migrateCacheDirectories,
		},
		{
			Version: "2.0.0",
			Name:    "move session store from files to the database",
			Apply:   migrateSessionStore,
		},
	}
}

func migrateUploadsLayout(dataDir string) error {
	uploads := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(uploads, 0755); err != nil {
		return err
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".upload" {
			continue
		}
		src := filepath.Join(dataDir, name)
		dst := filepath.Join(uploads, name)
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s: %w", name, err)
		}
	}
	return nil
}

func migrateCacheDirectories(dataDir string) error {
	for _, sub := range []string{"cache", "cache/pages", "cache/assets"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return err
		}
	}
	return nil
}

func migrateSessionStore(dataDir string) error {
	sessions := filepath.Join(dataDir, "sessions")
	if _, err := os.Stat(sessions); os.IsNotExist(err) {
		return nil
	}
	// sessions are ephemeral; the database store starts empty
	return os.RemoveAll(sessions)
}
