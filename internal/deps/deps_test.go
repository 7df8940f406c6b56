package deps

import (
	"errors"
	"strings"
	"testing"

	"panelix-setup/internal/models"
)

// fakeRunner replays canned results keyed by the command's first word
// and records every invocation.
type fakeRunner struct {
	results map[string]fakeResult
	calls   [][]string
}

type fakeResult struct {
	stdout string
	stderr string
	code   int
}

func (f *fakeRunner) Run(name string, args ...string) (string, string, int) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if res, ok := f.results[name]; ok {
		return res.stdout, res.stderr, res.code
	}
	return "", "command not found", 127
}

func withLookPath(t *testing.T, found map[string]bool) {
	t.Helper()
	original := lookPath
	lookPath = func(name string) (string, bool) {
		return "/usr/bin/" + name, found[name]
	}
	t.Cleanup(func() { lookPath = original })
}

/**
 * Test capability scan classification
 * @description
 * - A missing binary and a failing version query both land in the
 *   deficiency list; only the latter situation differs by detectedVersion
 * - Tools at or above their minimum stay out of the deficiency list
 */
func TestCheckClassification(t *testing.T) {
	withLookPath(t, map[string]bool{"curl": true, "tar": true, "mariadb": true})
	runner := &fakeRunner{results: map[string]fakeResult{
		"curl":    {stdout: "curl 8.1.2 (x86_64-pc-linux-gnu)"},
		"tar":     {stderr: "tar: unrecognized option", code: 64},
		"mariadb": {stdout: "mariadb  Ver 10.4.0-MariaDB"},
	}}

	report := Check([]models.Dependency{
		{Name: "curl", MinVersion: "7.0.0"},
		{Name: "tar"},
		{Name: "mariadb", MinVersion: "10.6.0"},
		{Name: "openssl", MinVersion: "1.1.1"},
	}, runner)

	if len(report.Checked) != 4 {
		t.Fatalf("checked %d dependencies, want 4", len(report.Checked))
	}
	if len(report.Deficiencies) != 3 {
		t.Fatalf("deficiencies %d, want 3 (tar, mariadb, openssl)", len(report.Deficiencies))
	}

	byName := map[string]models.Dependency{}
	for _, dep := range report.Checked {
		byName[dep.Name] = dep
	}
	if !byName["curl"].Present || byName["curl"].DetectedVersion != "8.1.2" {
		t.Errorf("curl probe: %+v", byName["curl"])
	}
	// query failed: present stays false, no version recorded
	if byName["tar"].Present || byName["tar"].DetectedVersion != "" {
		t.Errorf("tar probe: %+v", byName["tar"])
	}
	// below minimum: present with a version, still deficient
	if !byName["mariadb"].Present || byName["mariadb"].DetectedVersion != "10.4.0" {
		t.Errorf("mariadb probe: %+v", byName["mariadb"])
	}
	if byName["openssl"].Present {
		t.Errorf("openssl should be absent: %+v", byName["openssl"])
	}
}

func TestCheckSatisfied(t *testing.T) {
	withLookPath(t, map[string]bool{"curl": true})
	runner := &fakeRunner{results: map[string]fakeResult{
		"curl": {stdout: "curl 8.1.2"},
	}}
	report := Check([]models.Dependency{{Name: "curl", MinVersion: "7.0.0"}}, runner)
	if !report.Satisfied() {
		t.Fatalf("report should be satisfied: %+v", report)
	}
	if err := Install(report, &models.PlatformInfo{OSFamily: models.OSUnknown}, runner); err != nil {
		t.Fatalf("install with satisfied report must be a no-op, got %v", err)
	}
}

/**
 * Test package manager dispatch and failure propagation
 * @description
 * - Unknown OS family yields UnsupportedPlatformError with manual guidance
 * - A non-zero package manager exit becomes DependencyInstallFailedError
 *   naming the failing tool; nothing runs after the failure
 */
func TestInstallDispatch(t *testing.T) {
	deficient := models.DeficiencyReport{
		Deficiencies: []models.Dependency{{Name: "mariadb"}, {Name: "curl"}},
	}

	t.Run("unknown platform", func(t *testing.T) {
		runner := &fakeRunner{}
		err := Install(deficient, &models.PlatformInfo{OSFamily: models.OSUnknown}, runner)
		var unsupported *models.UnsupportedPlatformError
		if !errors.As(err, &unsupported) {
			t.Fatalf("error %T, want UnsupportedPlatformError", err)
		}
		if !strings.Contains(unsupported.Guidance, "mariadb") {
			t.Errorf("guidance should name the missing tools: %s", unsupported.Guidance)
		}
		if len(runner.calls) != 0 {
			t.Errorf("no commands may run on an unsupported platform, got %v", runner.calls)
		}
		if code := models.ExitCode(err); code != models.ExitUnsupported {
			t.Errorf("exit code %d, want %d", code, models.ExitUnsupported)
		}
	})

	t.Run("ubuntu recipe", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]fakeResult{"apt-get": {}}}
		if err := Install(deficient, &models.PlatformInfo{OSFamily: models.OSUbuntu}, runner); err != nil {
			t.Fatalf("install: %v", err)
		}
		if len(runner.calls) != 2 {
			t.Fatalf("want update + install, got %v", runner.calls)
		}
		installArgs := strings.Join(runner.calls[1], " ")
		if !strings.Contains(installArgs, "mariadb-server") {
			t.Errorf("mariadb should install as mariadb-server on ubuntu: %s", installArgs)
		}
	})

	t.Run("failing package manager", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]fakeResult{
			"pacman": {stderr: "error: target not found", code: 1},
		}}
		err := Install(deficient, &models.PlatformInfo{OSFamily: models.OSArch}, runner)
		var failed *models.DependencyInstallFailedError
		if !errors.As(err, &failed) {
			t.Fatalf("error %T, want DependencyInstallFailedError", err)
		}
		if failed.Tool != "pacman" || failed.ExitCode != 1 {
			t.Errorf("failure detail: %+v", failed)
		}
	})
}
