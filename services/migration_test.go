package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"panelix-setup/internal/config"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

func planVersions(t *testing.T, steps []MigrationStep) []string {
	t.Helper()
	var versions []string
	for _, step := range steps {
		versions = append(versions, step.Version)
	}
	return versions
}

func stepRegistry(versions ...string) []MigrationStep {
	var registry []MigrationStep
	for _, v := range versions {
		registry = append(registry, MigrationStep{
			Version: v,
			Name:    "step " + v,
			Apply:   func(string) error { return nil },
		})
	}
	return registry
}

/**
 * Test plan window boundaries
 * @description
 * - from is exclusive: its own migrations already ran
 * - to is inclusive: steps targeting the destination version run
 */
func TestPlanBoundaries(t *testing.T) {
	registry := stepRegistry("1.1.0", "1.2.0", "2.0.0")

	cases := []struct {
		from, to string
		want     []string
	}{
		{"1.0.0", "2.0.0", []string{"1.1.0", "1.2.0", "2.0.0"}},
		{"1.1.0", "2.0.0", []string{"1.2.0", "2.0.0"}},
		{"1.2.0", "2.0.0", []string{"2.0.0"}},
		{"2.0.0", "2.0.0", nil},
		{"1.0.0", "1.1.0", []string{"1.1.0"}},
	}
	for _, tc := range cases {
		plan, err := Plan(registry, utils.MustVersion(tc.from), utils.MustVersion(tc.to))
		if err != nil {
			t.Fatalf("%s->%s: %v", tc.from, tc.to, err)
		}
		got := planVersions(t, plan)
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%s->%s: plan %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPlanSortsUnorderedRegistry(t *testing.T) {
	registry := stepRegistry("2.0.0", "1.1.0", "1.2.0")
	plan, err := Plan(registry, utils.MustVersion("1.0.0"), utils.MustVersion("2.0.0"))
	if err != nil {
		t.Fatal(err)
	}
	got := planVersions(t, plan)
	if strings.Join(got, ",") != "1.1.0,1.2.0,2.0.0" {
		t.Errorf("plan not sorted: %v", got)
	}
}

// testEngine builds an engine over temp paths, running systemd steps
// through a canned runner.
func testEngine(t *testing.T, registry []MigrationStep, runner *scriptRunner) *MigrationEngine {
	t.Helper()
	root := t.TempDir()
	installDir := filepath.Join(root, "opt")
	dataDir := filepath.Join(root, "data")
	for _, dir := range []string{installDir, dataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if runner == nil {
		runner = &scriptRunner{results: map[string]scriptResult{
			"show": {stdout: "ActiveState=active\nSubState=running\nMainPID=77\n"},
		}}
	}

	originalGrace := config.Config.VerifyGraceSeconds
	config.Config.VerifyGraceSeconds = 0
	t.Cleanup(func() { config.Config.VerifyGraceSeconds = originalGrace })

	return &MigrationEngine{
		Registry:   registry,
		Systemd:    &SystemdManager{Runner: runner, UnitPath: filepath.Join(root, "panelix.service")},
		Backup:     CreateBackup,
		ReadState:  ReadInstalledState,
		InstallDir: installDir,
		DataDir:    dataDir,
		ConfigFile: filepath.Join(root, "panelix.env"),
	}
}

func readVersion(t *testing.T, installDir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(installDir, VersionFileName))
	if err != nil {
		t.Fatalf("read version file: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func TestRunNoOpSameVersion(t *testing.T) {
	engine := testEngine(t, stepRegistry("1.1.0"), nil)
	if err := WriteVersionFile(engine.InstallDir, "1.1.0"); err != nil {
		t.Fatal(err)
	}

	state, err := engine.Run(context.Background(), "1.1.0")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Version != "1.1.0" {
		t.Errorf("state version %q changed on no-op", state.Version)
	}
	// no backup directory may appear on a no-op
	backups := filepath.Join(filepath.Dir(engine.DataDir), "panelix-backups")
	if _, err := os.Stat(backups); !os.IsNotExist(err) {
		t.Error("no-op run must not create a backup")
	}
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	var order []string
	registry := []MigrationStep{
		{Version: "2.0.0", Name: "third", Apply: func(string) error { order = append(order, "2.0.0"); return nil }},
		{Version: "1.1.0", Name: "first", Apply: func(string) error { order = append(order, "1.1.0"); return nil }},
		{Version: "1.2.0", Name: "second", Apply: func(string) error { order = append(order, "1.2.0"); return nil }},
	}
	engine := testEngine(t, registry, nil)
	if err := WriteVersionFile(engine.InstallDir, "1.0.0"); err != nil {
		t.Fatal(err)
	}

	state, err := engine.Run(context.Background(), "2.0.0")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(order, ",") != "1.1.0,1.2.0,2.0.0" {
		t.Errorf("steps ran as %v", order)
	}
	if state.Version != "2.0.0" || readVersion(t, engine.InstallDir) != "2.0.0" {
		t.Error("version not persisted after success")
	}
}

/**
 * Test halt-on-failure semantics
 * @description
 * - A failing step stops the plan; later steps never run
 * - The version file stays at the last committed step
 * - The pre-run backup is preserved and named in the error
 */
func TestRunStepFailureHaltsPlan(t *testing.T) {
	var ranThird bool
	registry := []MigrationStep{
		{Version: "1.1.0", Name: "first", Apply: func(string) error { return nil }},
		{Version: "1.2.0", Name: "second", Apply: func(string) error { return fmt.Errorf("schema change refused") }},
		{Version: "2.0.0", Name: "third", Apply: func(string) error { ranThird = true; return nil }},
	}
	engine := testEngine(t, registry, nil)
	if err := WriteVersionFile(engine.InstallDir, "1.0.0"); err != nil {
		t.Fatal(err)
	}

	_, err := engine.Run(context.Background(), "2.0.0")
	var migErr *models.MigrationError
	if !errors.As(err, &migErr) {
		t.Fatalf("error %T, want MigrationError", err)
	}
	if ranThird {
		t.Error("step after the failure must never be invoked")
	}
	if migErr.Phase != models.MigrationPhaseApply || migErr.Step != "1.2.0" {
		t.Errorf("failure reported as phase=%s step=%s", migErr.Phase, migErr.Step)
	}
	if len(migErr.AppliedSteps) != 1 || migErr.AppliedSteps[0] != "1.1.0" {
		t.Errorf("committed steps reported as %v", migErr.AppliedSteps)
	}
	if readVersion(t, engine.InstallDir) != "1.1.0" {
		t.Errorf("version file at %q, want last committed step", readVersion(t, engine.InstallDir))
	}
	if _, statErr := os.Stat(migErr.BackupPath); statErr != nil {
		t.Errorf("backup named in the error is gone: %v", statErr)
	}
	if !strings.Contains(migErr.Error(), migErr.BackupPath) {
		t.Error("diagnostic must name the backup location")
	}
}

func TestRunVerifyFailureDistinctFromStepFailure(t *testing.T) {
	runner := &scriptRunner{results: map[string]scriptResult{
		"show": {stdout: "ActiveState=failed\nSubState=failed\nMainPID=0\n"},
	}}
	engine := testEngine(t, stepRegistry("1.1.0"), runner)
	if err := WriteVersionFile(engine.InstallDir, "1.0.0"); err != nil {
		t.Fatal(err)
	}

	_, err := engine.Run(context.Background(), "1.1.0")
	var migErr *models.MigrationError
	if !errors.As(err, &migErr) {
		t.Fatalf("error %T, want MigrationError", err)
	}
	if migErr.Phase != models.MigrationPhaseVerify {
		t.Errorf("phase %q, want verify", migErr.Phase)
	}
	// data migrations committed even though the service did not come up
	if len(migErr.AppliedSteps) != 1 {
		t.Errorf("applied steps %v", migErr.AppliedSteps)
	}
}

/**
 * Test that the plan follows the version as persisted under the lock
 * @description
 * - A concurrent run may finish between the first state read and lock
 *   acquisition; planning from that first read would re-apply its
 *   already-committed migrations
 */
func TestRunReplansFromVersionUnderLock(t *testing.T) {
	var applied []string
	registry := []MigrationStep{
		{Version: "1.1.0", Name: "first", Apply: func(string) error { applied = append(applied, "1.1.0"); return nil }},
		{Version: "2.0.0", Name: "second", Apply: func(string) error { applied = append(applied, "2.0.0"); return nil }},
	}
	engine := testEngine(t, registry, nil)
	// on disk another run has already reached the target
	if err := WriteVersionFile(engine.InstallDir, "2.0.0"); err != nil {
		t.Fatal(err)
	}

	// first read observes the world as it was before that run finished
	stale := true
	engine.ReadState = func(installDir, dataDir string) (*models.InstalledState, error) {
		if stale {
			stale = false
			return &models.InstalledState{Version: "1.0.0", InstallPath: installDir, DataPath: dataDir}, nil
		}
		return ReadInstalledState(installDir, dataDir)
	}

	state, err := engine.Run(context.Background(), "2.0.0")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Version != "2.0.0" {
		t.Errorf("state version %q", state.Version)
	}
	if len(applied) != 0 {
		t.Errorf("already-committed migrations re-applied: %v", applied)
	}
	backups := filepath.Join(filepath.Dir(engine.DataDir), "panelix-backups")
	if _, statErr := os.Stat(backups); !os.IsNotExist(statErr) {
		t.Error("an up-to-date installation must not be backed up again")
	}
	// the lock from the aborted-as-no-op run must not linger
	if _, statErr := os.Stat(filepath.Join(engine.InstallDir, ".setup.lock")); !os.IsNotExist(statErr) {
		t.Error("lock file should be released")
	}
}

func TestRunDowngradeRefused(t *testing.T) {
	engine := testEngine(t, stepRegistry("1.1.0"), nil)
	if err := WriteVersionFile(engine.InstallDir, "2.0.0"); err != nil {
		t.Fatal(err)
	}

	_, err := engine.Run(context.Background(), "1.0.0")
	if err == nil || !strings.Contains(err.Error(), "downgrade") {
		t.Fatalf("downgrade should be refused, got %v", err)
	}
}

func TestRunCancelledBeforeBackup(t *testing.T) {
	engine := testEngine(t, stepRegistry("1.1.0"), nil)
	if err := WriteVersionFile(engine.InstallDir, "1.0.0"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Run(ctx, "1.1.0")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled run returned %v", err)
	}
	if readVersion(t, engine.InstallDir) != "1.0.0" {
		t.Error("cancelled run must leave the state untouched")
	}
	backups := filepath.Join(filepath.Dir(engine.DataDir), "panelix-backups")
	if _, statErr := os.Stat(backups); !os.IsNotExist(statErr) {
		t.Error("cancelled run must not create a backup")
	}
}

func TestDescribePlan(t *testing.T) {
	engine := testEngine(t, stepRegistry("1.1.0", "1.2.0", "2.0.0"), nil)
	if err := WriteVersionFile(engine.InstallDir, "1.1.0"); err != nil {
		t.Fatal(err)
	}

	resp, err := engine.DescribePlan("2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if resp.From != "1.1.0" || resp.To != "2.0.0" || resp.NoOp {
		t.Errorf("plan header: %+v", resp)
	}
	if len(resp.Steps) != 2 || resp.Steps[0].Version != "1.2.0" || resp.Steps[1].Version != "2.0.0" {
		t.Errorf("plan steps: %v", resp.Steps)
	}

	same, err := engine.DescribePlan("1.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if !same.NoOp || len(same.Steps) != 0 {
		t.Errorf("same-version plan should be a no-op: %+v", same)
	}
}
