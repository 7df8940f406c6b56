package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	goversion "github.com/hashicorp/go-version"

	"panelix-setup/internal/config"
	"panelix-setup/internal/lock"
	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

/**
 * MigrationStep is one version-bound data migration
 * @property {string} Version - Version this step migrates the data to
 * @property {string} Name - Human readable description of the change
 * @property {func} Apply - Mutates the data directory; must be written
 *   to tolerate re-execution after restore from backup
 */
type MigrationStep struct {
	Version string
	Name    string
	Apply   func(dataDir string) error
}

/**
 * MigrationEngine drives the backup-then-forward-apply state machine
 * @description
 * - States: Idle -> BackingUp -> Applying -> Verifying -> Complete,
 *   with Failed reachable from the three middle states
 * - Steps are never rolled back; recovery is operator-driven
 *   restoration from the preserved backup
 */
type MigrationEngine struct {
	Registry   []MigrationStep
	Systemd    *SystemdManager
	Backup     func(dataDir, configFile string) (*models.BackupSnapshot, error)
	ReadState  func(installDir, dataDir string) (*models.InstalledState, error)
	InstallDir string
	DataDir    string
	ConfigFile string
}

func NewMigrationEngine() *MigrationEngine {
	runner := &utils.ExecRunner{}
	return &MigrationEngine{
		Registry:   Registry(),
		Systemd:    NewSystemdManager(runner),
		Backup:     CreateBackup,
		ReadState:  ReadInstalledState,
		InstallDir: config.Config.Paths.InstallDir,
		DataDir:    config.Config.Paths.DataDir,
		ConfigFile: config.Config.Paths.ConfigFile,
	}
}

/**
 * Compute the ordered migration plan for a version window
 * @param {[]MigrationStep} registry - Fixed step registry
 * @param {*goversion.Version} from - Installed version, exclusive
 * @param {*goversion.Version} to - Target version, inclusive
 * @returns {[]MigrationStep} steps sorted ascending by version
 * @description
 * - from itself is excluded: its migrations already ran when it was
 *   installed; to is included so steps targeting exactly the
 *   destination version run
 */
func Plan(registry []MigrationStep, from, to *goversion.Version) ([]MigrationStep, error) {
	var plan []MigrationStep
	for _, step := range registry {
		v, err := utils.ParseVersion(step.Version)
		if err != nil {
			return nil, fmt.Errorf("registry step %q has a bad version: %w", step.Name, err)
		}
		if v.GreaterThan(from) && v.LessThanOrEqual(to) {
			plan = append(plan, step)
		}
	}
	sort.Slice(plan, func(i, j int) bool {
		return utils.MustVersion(plan[i].Version).LessThan(utils.MustVersion(plan[j].Version))
	})
	return plan, nil
}

/**
 * Run the migration engine against a target version
 * @param {context.Context} ctx - Honored only until BackingUp begins
 * @param {string} target - Version to migrate to
 * @returns {*models.InstalledState} state after a successful run
 * @description
 * - from == to is a no-op: no backup, no lock mutation of state
 * - The installed version is re-read under the lock, so the plan is
 *   always computed from the version another run may just have left
 * - The version file advances after each committed step, so a halted
 *   run leaves the state at the last step that completed
 * - Once BackingUp begins the run is not cancellable; interrupting
 *   mid-apply would leave an ambiguous state
 */
func (e *MigrationEngine) Run(ctx context.Context, target string) (*models.InstalledState, error) {
	state, err := e.ReadState(e.InstallDir, e.DataDir)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no installation found at %s; run install first", e.InstallDir)
	}

	from, err := utils.ParseVersion(state.Version)
	if err != nil {
		return nil, err
	}
	to, err := utils.ParseVersion(target)
	if err != nil {
		return nil, fmt.Errorf("target version %q: %w", target, err)
	}

	if from.Equal(to) {
		logger.Infof("already at version %s, nothing to do", target)
		return state, nil
	}

	handle, err := lock.Acquire(e.InstallDir, "update")
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	// a run that completed between the first read and the lock would
	// otherwise leave us planning from a stale version
	state, err = e.ReadState(e.InstallDir, e.DataDir)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no installation found at %s; run install first", e.InstallDir)
	}
	from, err = utils.ParseVersion(state.Version)
	if err != nil {
		return nil, err
	}

	if from.Equal(to) {
		logger.Infof("already at version %s, nothing to do", target)
		return state, nil
	}
	if to.LessThan(from) {
		return nil, fmt.Errorf("downgrade from %s to %s is not supported; restore from a backup instead", state.Version, target)
	}

	plan, err := Plan(e.Registry, from, to)
	if err != nil {
		return nil, err
	}

	// last safe cancellation point
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Infof("migrating %s -> %s, %d steps", state.Version, target, len(plan))

	start := time.Now()
	snapshot, err := e.Backup(e.DataDir, e.ConfigFile)
	RecordStepDuration(models.MigrationPhaseBackup, "snapshot", time.Since(start).Seconds())
	if err != nil {
		RecordRunOutcome("update", err)
		return nil, err
	}
	logger.Infof("backup at %s", snapshot.BackupPath)

	var applied []string
	fail := func(phase, step string, cause error) (*models.InstalledState, error) {
		err := &models.MigrationError{
			Phase:        phase,
			Step:         step,
			AppliedSteps: applied,
			BackupPath:   snapshot.BackupPath,
			Err:          cause,
		}
		RecordRunOutcome("update", err)
		return nil, err
	}

	for _, step := range plan {
		logger.Infof("applying migration %s: %s", step.Version, step.Name)
		start := time.Now()
		err := step.Apply(e.DataDir)
		RecordStepDuration(models.MigrationPhaseApply, step.Version, time.Since(start).Seconds())
		if err != nil {
			return fail(models.MigrationPhaseApply, step.Version, err)
		}
		applied = append(applied, step.Version)
		// the state file tracks the last committed step
		if err := WriteVersionFile(e.InstallDir, step.Version); err != nil {
			return fail(models.MigrationPhaseApply, step.Version, err)
		}
	}

	if err := e.Systemd.Restart(); err != nil {
		return fail(models.MigrationPhaseVerify, "", err)
	}
	if err := e.Systemd.Verify(); err != nil {
		return fail(models.MigrationPhaseVerify, "", err)
	}

	if err := WriteVersionFile(e.InstallDir, target); err != nil {
		return fail(models.MigrationPhaseVerify, "", err)
	}
	RecordRunOutcome("update", nil)
	PushMetrics("panelix-setup-update")

	return &models.InstalledState{
		Version:     target,
		InstallPath: e.InstallDir,
		DataPath:    e.DataDir,
	}, nil
}

/**
 * Describe the plan without executing it
 * @returns {*models.PlanResponse} from, to and the ordered steps
 */
func (e *MigrationEngine) DescribePlan(target string) (*models.PlanResponse, error) {
	state, err := e.ReadState(e.InstallDir, e.DataDir)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no installation found at %s", e.InstallDir)
	}
	from, err := utils.ParseVersion(state.Version)
	if err != nil {
		return nil, err
	}
	to, err := utils.ParseVersion(target)
	if err != nil {
		return nil, fmt.Errorf("target version %q: %w", target, err)
	}

	resp := &models.PlanResponse{From: state.Version, To: target}
	if from.Equal(to) {
		resp.NoOp = true
		return resp, nil
	}
	plan, err := Plan(e.Registry, from, to)
	if err != nil {
		return nil, err
	}
	for _, step := range plan {
		resp.Steps = append(resp.Steps, models.PlanStep{Version: step.Version, Name: step.Name})
	}
	return resp, nil
}
