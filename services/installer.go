package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panelix-setup/internal/config"
	"panelix-setup/internal/deps"
	"panelix-setup/internal/lock"
	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/platform"
	"panelix-setup/internal/utils"
)

// InstallOptions carries the operator's choices for one install run.
type InstallOptions struct {
	Mode      config.Mode
	Overrides map[string]string
	Target    string
	DryRun    bool
}

/**
 * Installer orchestrates a fresh installation end to end
 * @description
 * - External effects (command execution, artifact download, manifest
 *   fetch) are injected so the orchestration is testable
 * - Steps run strictly in order; the first failure aborts the rest and
 *   no automatic cleanup is attempted
 */
type Installer struct {
	Runner   utils.Runner
	Systemd  *SystemdManager
	Probe    func() (*models.PlatformInfo, error)
	Manifest func(*models.PlatformInfo) (*ReleaseManifest, error)
	Download func(url, savePath string) error
	Required []models.Dependency
	Output   io.Writer
}

func NewInstaller() *Installer {
	runner := &utils.ExecRunner{}
	return &Installer{
		Runner:   runner,
		Systemd:  NewSystemdManager(runner),
		Probe:    platform.Detect,
		Manifest: FetchManifest,
		Download: func(url, savePath string) error {
			return utils.GetFile(url, savePath, 10*time.Minute)
		},
		Required: deps.DefaultRequirements(),
		Output:   os.Stdout,
	}
}

// installableFamilies are the platforms whose service supervision the
// installer can manage.
var installableFamilies = map[models.OSFamily]bool{
	models.OSUbuntu: true,
	models.OSDebian: true,
	models.OSRHEL:   true,
	models.OSArch:   true,
}

/**
 * Run a fresh installation
 * @param {InstallOptions} opts - Mode, overrides, target version, dry-run
 * @returns {*models.InstalledState} persisted state on success
 * @description
 * - Sequence: probe -> capability check -> dependency install ->
 *   resolve configuration -> lock -> run-as user -> directories ->
 *   fetch and extract artifact -> write configuration -> application
 *   prepare -> service install -> verify -> persist state
 * - Dry-run stops after planning and prints the steps it would take;
 *   nothing on disk changes and no lock is taken
 */
func (inst *Installer) Run(opts InstallOptions) (*models.InstalledState, error) {
	info, err := inst.Probe()
	if err != nil {
		return nil, err
	}
	logger.Infof("detected platform: %s", info.Label())
	if !installableFamilies[info.OSFamily] {
		return nil, &models.UnsupportedPlatformError{
			Family:   info.OSFamily,
			Guidance: "supported families are ubuntu, debian, rhel and arch; install panelix manually on other systems",
		}
	}

	report := deps.Check(inst.Required, inst.Runner)
	if !report.Satisfied() && !opts.DryRun {
		if err := deps.Install(report, info, inst.Runner); err != nil {
			return nil, err
		}
		report = deps.Check(inst.Required, inst.Runner)
		if !report.Satisfied() {
			first := report.Deficiencies[0]
			return nil, &models.DependencyInstallFailedError{
				Tool:   first.Name,
				Output: "still deficient after package installation",
			}
		}
	}

	manifest, err := inst.Manifest(info)
	if err != nil {
		return nil, err
	}
	release, err := manifest.Select(opts.Target)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(opts.Mode, opts.Overrides, os.Stdin, inst.Output)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		inst.printPlan(info, report, release, cfg)
		return nil, nil
	}

	handle, err := lock.Acquire(cfg.InstallDir, "install")
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	steps := []struct {
		name string
		run  func() error
	}{
		{"create-user", func() error { return inst.ensureUser(cfg) }},
		{"create-directories", func() error { return inst.createDirectories(cfg) }},
		{"fetch-artifact", func() error { return inst.fetchArtifact(release, cfg) }},
		{"write-configuration", func() error { return inst.writeConfiguration(cfg) }},
		{"application-prepare", func() error { return inst.applicationPrepare(cfg) }},
		{"install-service", func() error { return inst.Systemd.Install(cfg) }},
		{"verify-service", inst.Systemd.Verify},
		{"persist-state", func() error { return WriteVersionFile(cfg.InstallDir, release.Version) }},
	}
	for _, step := range steps {
		logger.Infof("install step: %s", step.name)
		start := time.Now()
		err := step.run()
		RecordStepDuration("install", step.name, time.Since(start).Seconds())
		if err != nil {
			RecordRunOutcome("install", err)
			return nil, err
		}
	}
	RecordRunOutcome("install", nil)
	PushMetrics("panelix-setup-install")

	return &models.InstalledState{
		Version:     release.Version,
		InstallPath: cfg.InstallDir,
		DataPath:    cfg.DataDir,
	}, nil
}

func (inst *Installer) printPlan(info *models.PlatformInfo, report models.DeficiencyReport, release *ReleaseAddr, cfg *config.InstallConfig) {
	fmt.Fprintf(inst.Output, "Platform: %s\n", info.Label())
	fmt.Fprintf(inst.Output, "Version to install: %s\n", release.Version)
	fmt.Fprintf(inst.Output, "Artifact: %s\n", release.ArtifactUrl)
	if report.Satisfied() {
		fmt.Fprintln(inst.Output, "Dependencies: all satisfied")
	} else {
		names := make([]string, 0, len(report.Deficiencies))
		for _, d := range report.Deficiencies {
			names = append(names, d.Name)
		}
		fmt.Fprintf(inst.Output, "Dependencies to install: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(inst.Output, "Install dir: %s\nData dir: %s\nConfig file: %s\nService unit: %s\n",
		cfg.InstallDir, cfg.DataDir, cfg.ConfigFile, UnitPath)
	fmt.Fprintln(inst.Output, "Dry run: nothing was changed")
}

// ensureUser creates the system account owning the installation.
func (inst *Installer) ensureUser(cfg *config.InstallConfig) error {
	_, _, code := inst.Runner.Run("id", "-u", cfg.RunAsUser)
	if code == 0 {
		return nil
	}
	_, stderr, code := inst.Runner.Run("useradd",
		"--system",
		"--home-dir", cfg.DataDir,
		"--no-create-home",
		"--shell", "/usr/sbin/nologin",
		cfg.RunAsUser)
	if code != 0 {
		return fmt.Errorf("useradd %s exited %d: %s", cfg.RunAsUser, code, strings.TrimSpace(stderr))
	}
	return nil
}

func (inst *Installer) createDirectories(cfg *config.InstallConfig) error {
	for _, dir := range []string{cfg.InstallDir, cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return inst.chownTree(cfg, cfg.DataDir, cfg.LogDir)
}

/**
 * Download, checksum and unpack the release artifact
 * @description
 * - The artifact is staged in a temporary directory and only extracted
 *   into the installation after its sha256 matches the manifest
 */
func (inst *Installer) fetchArtifact(release *ReleaseAddr, cfg *config.InstallConfig) error {
	staging, err := os.MkdirTemp("", "panelix-artifact-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	archivePath := filepath.Join(staging, "panelix.tar.gz")
	if err := inst.Download(release.ArtifactUrl, archivePath); err != nil {
		return fmt.Errorf("download %s: %w", release.ArtifactUrl, err)
	}

	sum, err := utils.CalcFileSha256(archivePath)
	if err != nil {
		return err
	}
	if !strings.EqualFold(sum, release.Sha256) {
		return fmt.Errorf("artifact checksum mismatch: got %s, manifest says %s", sum, release.Sha256)
	}

	if err := utils.ExtractTarGz(archivePath, cfg.InstallDir); err != nil {
		return fmt.Errorf("extract artifact: %w", err)
	}
	return inst.chownTree(cfg, cfg.InstallDir)
}

func (inst *Installer) writeConfiguration(cfg *config.InstallConfig) error {
	if err := config.WriteEnvFile(cfg); err != nil {
		return err
	}
	return inst.chownTree(cfg, cfg.ConfigFile)
}

// applicationPrepare runs the application's own first-start setup,
// schema creation and asset preparation. Exit status is checked.
func (inst *Installer) applicationPrepare(cfg *config.InstallConfig) error {
	binary := filepath.Join(cfg.InstallDir, "bin", "panelix")
	_, stderr, code := inst.Runner.Run(binary, "prepare", "--config", cfg.ConfigFile)
	if code != 0 {
		return &models.DependencyInstallFailedError{
			Tool:     "panelix prepare",
			ExitCode: code,
			Output:   strings.TrimSpace(stderr),
		}
	}
	return nil
}

func (inst *Installer) chownTree(cfg *config.InstallConfig, paths ...string) error {
	owner := cfg.RunAsUser + ":" + cfg.RunAsUser
	for _, path := range paths {
		_, stderr, code := inst.Runner.Run("chown", "-R", owner, path)
		if code != 0 {
			return fmt.Errorf("chown %s %s exited %d: %s", owner, path, code, strings.TrimSpace(stderr))
		}
	}
	return nil
}
