package models

import (
	"errors"
	"fmt"
)

// Process exit codes. The cmd layer is the only place allowed to
// terminate the process; everything below it returns structured errors.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitBusy        = 3
	ExitUnsupported = 4
)

// DetectionError means the host exposes no usable OS identification
// mechanism at all. Installation cannot proceed blind.
type DetectionError struct {
	Reason string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("platform detection failed: %s", e.Reason)
}

// UnsupportedPlatformError carries explicit manual-install guidance
// instead of letting the installer guess a package manager.
type UnsupportedPlatformError struct {
	Family   OSFamily
	Guidance string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q: %s", e.Family, e.Guidance)
}

type UnsupportedArchitectureError struct {
	Arch string
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported architecture %q: panelix ships for amd64, arm64 and armv7 only", e.Arch)
}

// DependencyInstallFailedError names the failing tool so a partially
// installed dependency set never continues silently.
type DependencyInstallFailedError struct {
	Tool     string
	ExitCode int
	Output   string
}

func (e *DependencyInstallFailedError) Error() string {
	return fmt.Sprintf("dependency install failed: %s exited with code %d", e.Tool, e.ExitCode)
}

type ConfigurationInvalidError struct {
	Field  string
	Reason string
}

func (e *ConfigurationInvalidError) Error() string {
	return fmt.Sprintf("configuration field %q invalid: %s", e.Field, e.Reason)
}

// ServiceError reports which supervision step failed. The unit file is
// idempotent to rewrite, so no rollback is attempted on retry.
type ServiceError struct {
	Step string
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s failed: %v", e.Step, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ServiceFailedToStartError is raised when the unit is not running after
// the verification grace period. Repeatedly restarting a crashing
// process is not self-healing, so this surfaces to the operator instead.
type ServiceFailedToStartError struct {
	Unit string
}

func (e *ServiceFailedToStartError) Error() string {
	return fmt.Sprintf("service %s did not reach running state; inspect logs with: journalctl -u %s", e.Unit, e.Unit)
}

// InstallationBusyError means another orchestrator or migration run
// holds the installation lock. The caller fails immediately rather than
// queuing behind a process of unknown progress.
type InstallationBusyError struct {
	LockPath string
	OwnerPID int
}

func (e *InstallationBusyError) Error() string {
	if e.OwnerPID > 0 {
		return fmt.Sprintf("installation busy: lock %s held by pid %d", e.LockPath, e.OwnerPID)
	}
	return fmt.Sprintf("installation busy: lock %s held by another process", e.LockPath)
}

// BackupFailedError aborts a migration before any mutation occurs.
type BackupFailedError struct {
	Err error
}

func (e *BackupFailedError) Error() string {
	return fmt.Sprintf("backup failed, no migration was attempted: %v", e.Err)
}

func (e *BackupFailedError) Unwrap() error { return e.Err }

// Migration phases, used to distinguish a step failure from a
// post-apply verification failure.
const (
	MigrationPhaseBackup = "backup"
	MigrationPhaseApply  = "apply"
	MigrationPhaseVerify = "verify"
)

/**
 * Migration run failure
 * @property {string} phase - backup/apply/verify
 * @property {string} step - Version of the failing step, empty outside apply
 * @property {[]string} appliedSteps - Steps that already committed in this run
 * @property {string} backupPath - Preserved pre-migration backup location
 * @description
 * - Applied steps are not rolled back; migrations are not assumed reversible
 * - Every failure after backup creation reports where the backup lives
 */
type MigrationError struct {
	Phase        string
	Step         string
	AppliedSteps []string
	BackupPath   string
	Err          error
}

func (e *MigrationError) Error() string {
	switch e.Phase {
	case MigrationPhaseApply:
		msg := fmt.Sprintf("migration step %s failed: %v", e.Step, e.Err)
		if len(e.AppliedSteps) > 0 {
			msg += fmt.Sprintf(" (steps %v already committed in this run)", e.AppliedSteps)
		}
		return msg + fmt.Sprintf("; backup preserved at %s", e.BackupPath)
	case MigrationPhaseVerify:
		return fmt.Sprintf("all migration steps applied but service verification failed: %v; backup preserved at %s", e.Err, e.BackupPath)
	default:
		return fmt.Sprintf("migration %s failed: %v", e.Phase, e.Err)
	}
}

func (e *MigrationError) Unwrap() error { return e.Err }

/**
 * Map an error to the process exit code of the CLI surface
 * @param {error} err - Error returned from an orchestrator or migration run
 * @returns {int} 0 success, 3 busy, 4 unsupported platform/architecture, 1 otherwise
 */
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var busy *InstallationBusyError
	if errors.As(err, &busy) {
		return ExitBusy
	}
	var unsupPlat *UnsupportedPlatformError
	var unsupArch *UnsupportedArchitectureError
	if errors.As(err, &unsupPlat) || errors.As(err, &unsupArch) {
		return ExitUnsupported
	}
	return ExitFailure
}
