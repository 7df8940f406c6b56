// Package lock serializes installer and updater runs through a file
// based mutual exclusion lock inside the installation directory.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"panelix-setup/internal/models"
)

// LockFileName is the lock file created under the installation directory.
const LockFileName = ".setup.lock"

// Handle represents an acquired installation lock.
type Handle struct {
	Path     string
	released bool
}

// payload is the JSON document stored in the lock file.
type payload struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Command   string `json:"command"`
}

/**
 * Acquire the installation lock, failing fast when another run holds it
 * @param {string} installDir - Installation directory owning the lock
 * @param {string} command - Operation name recorded in the lock payload
 * @returns {*Handle} released via Release when the run finishes
 * @throws InstallationBusyError when a live process already holds the lock
 * @description
 * - The lock file is created with O_EXCL so two concurrent runs cannot
 *   both succeed
 * - A lock whose recorded pid no longer maps to a live process is removed
 *   and acquisition is retried once
 */
func Acquire(installDir, command string) (*Handle, error) {
	lockPath := filepath.Join(installDir, LockFileName)
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", installDir, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			data, merr := json.Marshal(payload{
				PID:       os.Getpid(),
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
				Command:   command,
			})
			if merr == nil {
				_, merr = file.Write(data)
			}
			file.Close()
			if merr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("write lock payload: %w", merr)
			}
			return &Handle{Path: lockPath}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
		}

		owner := readPayload(lockPath)
		if owner != nil && !processAlive(owner.PID) {
			// 持有者进程已退出，清理残留锁
			os.Remove(lockPath)
			continue
		}
		busy := &models.InstallationBusyError{LockPath: lockPath}
		if owner != nil {
			busy.OwnerPID = owner.PID
		}
		return nil, busy
	}
	return nil, &models.InstallationBusyError{LockPath: lockPath}
}

// Release removes the lock file. Safe to call more than once.
func (h *Handle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	return os.Remove(h.Path)
}

func readPayload(lockPath string) *payload {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.PID <= 0 {
		return nil
	}
	return &p
}

// processAlive probes the pid with signal 0. os.FindProcess always
// succeeds on unix, so the signal result is what matters.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
