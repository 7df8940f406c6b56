package services

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"panelix-setup/internal/config"
	"panelix-setup/internal/models"
)

// scriptRunner replays canned results keyed by the first systemctl
// argument and records every invocation.
type scriptRunner struct {
	results map[string]scriptResult
	calls   [][]string
}

type scriptResult struct {
	stdout string
	stderr string
	code   int
}

func (s *scriptRunner) Run(name string, args ...string) (string, string, int) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if len(args) > 0 {
		if res, ok := s.results[args[0]]; ok {
			return res.stdout, res.stderr, res.code
		}
	}
	return "", "", 0
}

func testInstallConfig() *config.InstallConfig {
	return &config.InstallConfig{
		InstallDir: "/opt/panelix",
		DataDir:    "/var/lib/panelix",
		LogDir:     "/var/log/panelix",
		ConfigFile: "/etc/panelix/panelix.env",
		RunAsUser:  "panelix",
	}
}

func TestBuildUnit(t *testing.T) {
	unit := BuildUnit(testInstallConfig())

	for _, want := range []string{
		"User=panelix",
		"Group=panelix",
		"WorkingDirectory=/opt/panelix",
		"EnvironmentFile=/etc/panelix/panelix.env",
		"ExecStart=/opt/panelix/bin/panelix serve",
		"Restart=always",
		"RestartSec=10",
		"ProtectSystem=strict",
		"ProtectHome=true",
		"ReadWritePaths=/var/lib/panelix /var/log/panelix",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("unit file missing %q:\n%s", want, unit)
		}
	}
}

func TestInstallStepsAndOrder(t *testing.T) {
	runner := &scriptRunner{}
	manager := &SystemdManager{
		Runner:   runner,
		UnitPath: filepath.Join(t.TempDir(), "panelix.service"),
	}

	if err := manager.Install(testInstallConfig()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	want := [][]string{
		{"systemctl", "daemon-reload"},
		{"systemctl", "enable", UnitName},
		{"systemctl", "start", UnitName},
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("got %d systemctl calls, want %d: %v", len(runner.calls), len(want), runner.calls)
	}
	for i, call := range want {
		if strings.Join(runner.calls[i], " ") != strings.Join(call, " ") {
			t.Errorf("call %d = %v, want %v", i, runner.calls[i], call)
		}
	}
}

func TestInstallEnableFailureNamesStep(t *testing.T) {
	runner := &scriptRunner{results: map[string]scriptResult{
		"enable": {stderr: "Failed to enable unit", code: 1},
	}}
	manager := &SystemdManager{
		Runner:   runner,
		UnitPath: filepath.Join(t.TempDir(), "panelix.service"),
	}

	err := manager.Install(testInstallConfig())
	var serviceErr *models.ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("error %T, want ServiceError", err)
	}
	if serviceErr.Step != "enable" {
		t.Errorf("failed step %q, want enable", serviceErr.Step)
	}
	// start must not run after a failed enable
	for _, call := range runner.calls {
		if len(call) > 1 && call[1] == "start" {
			t.Error("start should not be attempted after enable failed")
		}
	}
}

func TestRuntimeParsing(t *testing.T) {
	cases := []struct {
		name   string
		show   scriptResult
		status string
		pid    int
	}{
		{
			name:   "running",
			show:   scriptResult{stdout: "ActiveState=active\nSubState=running\nMainPID=4242\n"},
			status: "running",
			pid:    4242,
		},
		{
			name:   "failed",
			show:   scriptResult{stdout: "ActiveState=failed\nSubState=failed\nMainPID=0\n"},
			status: "stopped",
		},
		{
			name:   "systemctl unavailable",
			show:   scriptResult{stderr: "Failed to connect to bus", code: 1},
			status: "stopped",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &scriptRunner{results: map[string]scriptResult{"show": tc.show}}
			manager := &SystemdManager{Runner: runner, UnitPath: "/dev/null"}

			status := manager.Runtime()
			if status.Status != tc.status {
				t.Errorf("Status = %q, want %q", status.Status, tc.status)
			}
			if status.PID != tc.pid {
				t.Errorf("PID = %d, want %d", status.PID, tc.pid)
			}
		})
	}
}

func TestVerifyFailure(t *testing.T) {
	originalGrace := config.Config.VerifyGraceSeconds
	config.Config.VerifyGraceSeconds = 0
	t.Cleanup(func() { config.Config.VerifyGraceSeconds = originalGrace })

	runner := &scriptRunner{results: map[string]scriptResult{
		"show": {stdout: "ActiveState=activating\nSubState=auto-restart\nMainPID=0\n"},
	}}
	manager := &SystemdManager{Runner: runner, UnitPath: "/dev/null"}

	err := manager.Verify()
	var failed *models.ServiceFailedToStartError
	if !errors.As(err, &failed) {
		t.Fatalf("error %T, want ServiceFailedToStartError", err)
	}
	if !strings.Contains(failed.Error(), "journalctl -u "+UnitName) {
		t.Errorf("error should point at journalctl: %v", failed)
	}
}
