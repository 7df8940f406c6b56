package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

// backupTimestampLayout names snapshot directories sortably.
const backupTimestampLayout = "20060102-150405"

/**
 * Snapshot the data directory and configuration before a migration
 * @param {string} dataDir - Live data directory to copy
 * @param {string} configFile - Configuration file to copy alongside
 * @returns {*models.BackupSnapshot} location and sources of the snapshot
 * @throws BackupFailedError when any part of the copy fails
 * @description
 * - Snapshots land in <data parent>/panelix-backups/<timestamp>/ so they
 *   survive even if the data directory itself is damaged afterwards
 * - A partially written snapshot directory is removed on failure
 * - Snapshots are never pruned automatically; disk reclamation is the
 *   operator's call
 */
func CreateBackup(dataDir, configFile string) (*models.BackupSnapshot, error) {
	now := time.Now()
	backupRoot := filepath.Join(filepath.Dir(dataDir), "panelix-backups", now.Format(backupTimestampLayout))

	if err := os.MkdirAll(backupRoot, 0755); err != nil {
		return nil, &models.BackupFailedError{Err: fmt.Errorf("create %s: %w", backupRoot, err)}
	}

	fail := func(err error) (*models.BackupSnapshot, error) {
		os.RemoveAll(backupRoot)
		return nil, &models.BackupFailedError{Err: err}
	}

	sources := []string{}
	if _, err := os.Stat(dataDir); err == nil {
		if err := utils.CopyDir(dataDir, filepath.Join(backupRoot, filepath.Base(dataDir))); err != nil {
			return fail(fmt.Errorf("copy %s: %w", dataDir, err))
		}
		sources = append(sources, dataDir)
	} else if !os.IsNotExist(err) {
		return fail(err)
	}

	if _, err := os.Stat(configFile); err == nil {
		if err := utils.CopyFile(configFile, filepath.Join(backupRoot, filepath.Base(configFile)), 0600); err != nil {
			return fail(fmt.Errorf("copy %s: %w", configFile, err))
		}
		sources = append(sources, configFile)
	} else if !os.IsNotExist(err) {
		return fail(err)
	}

	if len(sources) == 0 {
		return fail(fmt.Errorf("nothing to back up: neither %s nor %s exists", dataDir, configFile))
	}

	logger.Infof("backup created at %s (%d sources)", backupRoot, len(sources))
	return &models.BackupSnapshot{
		Timestamp:   now,
		SourcePaths: sources,
		BackupPath:  backupRoot,
	}, nil
}
