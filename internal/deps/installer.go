package deps

import (
	"strings"

	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

// packageManager is one native package-manager recipe: zero or more
// preparation invocations followed by the install command the missing
// package names are appended to.
type packageManager struct {
	prepare [][]string
	install []string
}

// Dispatch table keyed by canonical OS family. Families outside this
// table are rejected with manual-install guidance.
var packageManagers = map[models.OSFamily]packageManager{
	models.OSUbuntu: {
		prepare: [][]string{{"apt-get", "update", "-q"}},
		install: []string{"apt-get", "install", "-y"},
	},
	models.OSDebian: {
		prepare: [][]string{{"apt-get", "update", "-q"}},
		install: []string{"apt-get", "install", "-y"},
	},
	models.OSRHEL: {
		install: []string{"dnf", "install", "-y"},
	},
	models.OSArch: {
		install: []string{"pacman", "-Sy", "--noconfirm"},
	},
	models.OSMacOS: {
		install: []string{"brew", "install"},
	},
}

// Tool name to distribution package name, where they differ. Tools
// absent from a family's map install under their own name.
var packageNames = map[models.OSFamily]map[string]string{
	models.OSUbuntu: {"mariadb": "mariadb-server"},
	models.OSDebian: {"mariadb": "mariadb-server"},
	models.OSRHEL:   {"mariadb": "mariadb-server"},
}

/**
 * Install missing dependencies through the native package manager
 * @param {models.DeficiencyReport} report - Capability scan result
 * @param {*models.PlatformInfo} platform - Detected host platform
 * @param {utils.Runner} runner - Command executor
 * @returns {error} UnsupportedPlatformError for absent dispatch entries,
 *                  DependencyInstallFailedError on any non-zero exit
 * @description
 * - Exit status of every invocation is checked; the first failure stops
 *   the run because a partially installed dependency set produces
 *   confusing downstream failures
 */
func Install(report models.DeficiencyReport, platform *models.PlatformInfo, runner utils.Runner) error {
	if report.Satisfied() {
		return nil
	}

	pm, ok := packageManagers[platform.OSFamily]
	if !ok {
		return &models.UnsupportedPlatformError{
			Family:   platform.OSFamily,
			Guidance: "no package manager recipe for this system; install " + joinNames(report.Deficiencies) + " manually and re-run",
		}
	}

	for _, prep := range pm.prepare {
		if err := runChecked(runner, prep); err != nil {
			return err
		}
	}

	args := append([]string{}, pm.install...)
	for _, dep := range report.Deficiencies {
		args = append(args, resolvePackageName(platform.OSFamily, dep.Name))
	}
	return runChecked(runner, args)
}

func runChecked(runner utils.Runner, argv []string) error {
	logger.Infof("running: %s", strings.Join(argv, " "))
	_, stderr, code := runner.Run(argv[0], argv[1:]...)
	if code != 0 {
		return &models.DependencyInstallFailedError{
			Tool:     argv[0],
			ExitCode: code,
			Output:   strings.TrimSpace(stderr),
		}
	}
	return nil
}

func resolvePackageName(family models.OSFamily, tool string) string {
	if names, ok := packageNames[family]; ok {
		if pkg, ok := names[tool]; ok {
			return pkg
		}
	}
	return tool
}

func joinNames(deps []models.Dependency) string {
	names := make([]string, 0, len(deps))
	for _, dep := range deps {
		names = append(names, dep.Name)
	}
	return strings.Join(names, ", ")
}
