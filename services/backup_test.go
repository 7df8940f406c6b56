package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"panelix-setup/internal/models"
)

func TestCreateBackupSnapshotsDataAndConfig(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "panelix-data")
	configFile := filepath.Join(root, "panelix.env")

	if err := os.MkdirAll(filepath.Join(dataDir, "uploads"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "uploads", "a.txt"), []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configFile, []byte("domain=localhost\n"), 0600); err != nil {
		t.Fatal(err)
	}

	snapshot, err := CreateBackup(dataDir, configFile)
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}

	if len(snapshot.SourcePaths) != 2 {
		t.Errorf("SourcePaths = %v, want data dir and config", snapshot.SourcePaths)
	}
	copied, err := os.ReadFile(filepath.Join(snapshot.BackupPath, "panelix-data", "uploads", "a.txt"))
	if err != nil || string(copied) != "payload" {
		t.Errorf("data not copied into snapshot: %v", err)
	}
	if _, err := os.Stat(filepath.Join(snapshot.BackupPath, "panelix.env")); err != nil {
		t.Errorf("config not copied into snapshot: %v", err)
	}
	// snapshots live next to the data dir, not inside it
	if filepath.Dir(filepath.Dir(snapshot.BackupPath)) != root {
		t.Errorf("snapshot at %s, want under %s/panelix-backups", snapshot.BackupPath, root)
	}
	// the recorded time and the directory name come from the same instant
	if snapshot.Timestamp.IsZero() || time.Since(snapshot.Timestamp) > time.Minute {
		t.Errorf("Timestamp = %v, want the snapshot creation time", snapshot.Timestamp)
	}
	if got := filepath.Base(snapshot.BackupPath); got != snapshot.Timestamp.Format("20060102-150405") {
		t.Errorf("directory %q does not match Timestamp %v", got, snapshot.Timestamp)
	}
}

func TestCreateBackupMissingConfigStillSnapshotsData(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "panelix-data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}

	snapshot, err := CreateBackup(dataDir, filepath.Join(root, "absent.env"))
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}
	if len(snapshot.SourcePaths) != 1 || snapshot.SourcePaths[0] != dataDir {
		t.Errorf("SourcePaths = %v, want just the data dir", snapshot.SourcePaths)
	}
}

func TestCreateBackupNothingToSnapshot(t *testing.T) {
	root := t.TempDir()

	_, err := CreateBackup(filepath.Join(root, "absent-data"), filepath.Join(root, "absent.env"))
	var backupErr *models.BackupFailedError
	if !errors.As(err, &backupErr) {
		t.Fatalf("error %T, want BackupFailedError", err)
	}
	// the failed snapshot directory must not linger
	entries, readErr := os.ReadDir(filepath.Join(root, "panelix-backups"))
	if readErr == nil && len(entries) != 0 {
		t.Errorf("partial snapshot left behind: %v", entries)
	}
}
