package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"panelix-setup/internal/config"
	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

const (
	// UnitName is the systemd unit the installer manages.
	UnitName = "panelix.service"
	// UnitPath is where the unit file is written.
	UnitPath = "/etc/systemd/system/panelix.service"
)

/**
 * SystemdManager writes and supervises the panelix systemd unit
 * @description
 * - All systemctl invocations go through an injected Runner so the
 *   manager is testable without a live systemd
 * - Each supervision step (write, daemon-reload, enable, start) fails
 *   independently with a ServiceError naming the step
 */
type SystemdManager struct {
	Runner   utils.Runner
	UnitPath string
}

func NewSystemdManager(runner utils.Runner) *SystemdManager {
	return &SystemdManager{Runner: runner, UnitPath: UnitPath}
}

/**
 * Render the panelix unit file
 * @param {*config.InstallConfig} cfg - Resolved installation configuration
 * @returns {string} complete unit file content
 * @description
 * - EnvironmentFile points at the 0600 configuration so secrets never
 *   appear on the command line
 * - ProtectSystem/ProtectHome sandbox the service; data and log
 *   directories are the only writable paths
 */
func BuildUnit(cfg *config.InstallConfig) string {
	var lines []string

	lines = append(lines, "[Unit]")
	lines = append(lines, "Description=Panelix server")
	lines = append(lines, "After=network-online.target mariadb.service")
	lines = append(lines, "Wants=network-online.target")
	lines = append(lines, "")

	lines = append(lines, "[Service]")
	lines = append(lines, "User="+cfg.RunAsUser)
	lines = append(lines, "Group="+cfg.RunAsUser)
	lines = append(lines, "WorkingDirectory="+cfg.InstallDir)
	lines = append(lines, "EnvironmentFile="+cfg.ConfigFile)
	lines = append(lines, "ExecStart="+filepath.Join(cfg.InstallDir, "bin", "panelix")+" serve")
	lines = append(lines, "Restart=always")
	lines = append(lines, "RestartSec=10")
	lines = append(lines, "ProtectSystem=strict")
	lines = append(lines, "ProtectHome=true")
	lines = append(lines, "ReadWritePaths="+cfg.DataDir+" "+cfg.LogDir)
	lines = append(lines, "")

	lines = append(lines, "[Install]")
	lines = append(lines, "WantedBy=multi-user.target")
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}

/**
 * Install the unit file and bring the service up
 * @throws ServiceError naming the first step that failed
 * @description
 * - Rewriting the unit file is idempotent, so repeated installs converge
 * - enable and start are separate steps; a failure message names which
 */
func (m *SystemdManager) Install(cfg *config.InstallConfig) error {
	unit := BuildUnit(cfg)
	if err := os.WriteFile(m.UnitPath, []byte(unit), 0644); err != nil {
		return &models.ServiceError{Step: "write-unit", Err: err}
	}
	logger.Infof("wrote unit file %s", m.UnitPath)

	if err := m.systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := m.systemctl("enable", UnitName); err != nil {
		return err
	}
	return m.systemctl("start", UnitName)
}

func (m *SystemdManager) Start() error   { return m.systemctl("start", UnitName) }
func (m *SystemdManager) Stop() error    { return m.systemctl("stop", UnitName) }
func (m *SystemdManager) Restart() error { return m.systemctl("restart", UnitName) }

func (m *SystemdManager) systemctl(args ...string) error {
	_, stderr, code := m.Runner.Run("systemctl", args...)
	if code != 0 {
		return &models.ServiceError{
			Step: args[0],
			Err:  fmt.Errorf("systemctl %s exited %d: %s", strings.Join(args, " "), code, strings.TrimSpace(stderr)),
		}
	}
	return nil
}

/**
 * Read the runtime state of the panelix unit
 * @returns {*models.ServiceStatus} never nil; Status is one of
 *   running/stopped/unknown
 * @description
 * - systemctl show with selected properties is stable to parse,
 *   unlike the human readable status output
 */
func (m *SystemdManager) Runtime() *models.ServiceStatus {
	stdout, _, code := m.Runner.Run("systemctl",
		"show", UnitName, "--no-page",
		"--property", "ActiveState,SubState,MainPID")
	status := &models.ServiceStatus{Unit: UnitName, Status: "unknown"}
	if code != 0 {
		status.Status = "stopped"
		return status
	}

	props := parseShowOutput(stdout)
	status.State = props["ActiveState"]
	status.SubState = props["SubState"]
	if pid, err := strconv.Atoi(props["MainPID"]); err == nil {
		status.PID = pid
	}
	switch strings.ToLower(status.State) {
	case "active":
		status.Status = "running"
	case "":
		status.Status = "unknown"
	default:
		status.Status = "stopped"
	}
	return status
}

/**
 * Verify the unit is running after the configured grace period
 * @throws ServiceFailedToStartError when the unit is not active
 * @description
 * - A crash-looping process may report active immediately after start,
 *   so verification waits before sampling
 */
func (m *SystemdManager) Verify() error {
	time.Sleep(time.Duration(config.Config.VerifyGraceSeconds) * time.Second)
	if m.Runtime().Status != "running" {
		return &models.ServiceFailedToStartError{Unit: UnitName}
	}
	return nil
}

// parseShowOutput parses `systemctl show` key=value lines.
func parseShowOutput(output string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if found && key != "" {
			props[key] = value
		}
	}
	return props
}
