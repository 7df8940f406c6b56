package deps

import (
	"strings"

	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

// lookPath is swapped out by tests.
var lookPath = utils.LookPath

/**
 * Default external tools a Panelix installation relies on
 * @returns {[]models.Dependency} Tool list with minimum versions
 * @description
 * - tar and curl handle artifact download and extraction
 * - openssl backs TLS material generation for the reverse proxy setup
 * - mariadb is the application's database server
 */
func DefaultRequirements() []models.Dependency {
	return []models.Dependency{
		{Name: "curl"},
		{Name: "tar"},
		{Name: "openssl", MinVersion: "1.1.1", VersionArgs: []string{"version"}},
		{Name: "mariadb", MinVersion: "10.6.0"},
	}
}

/**
 * Scan the host for required external tools
 * @param {[]models.Dependency} required - Tools with optional minimum versions
 * @param {utils.Runner} runner - Command executor for version queries
 * @returns {models.DeficiencyReport} Every probe result plus the deficient subset
 * @description
 * - A tool is present when its binary resolves and the version query succeeds
 * - A missing binary and a failed version query are the same deficiency,
 *   distinguished only by whether detectedVersion is set
 * - Individual query failures are collected, never raised
 */
func Check(required []models.Dependency, runner utils.Runner) models.DeficiencyReport {
	report := models.DeficiencyReport{}
	for _, dep := range required {
		checked := probe(dep, runner)
		report.Checked = append(report.Checked, checked)
		if deficient(checked) {
			report.Deficiencies = append(report.Deficiencies, checked)
		}
	}
	return report
}

func probe(dep models.Dependency, runner utils.Runner) models.Dependency {
	if _, ok := lookPath(dep.Name); !ok {
		logger.Debugf("dependency %s: binary not found", dep.Name)
		return dep
	}

	args := dep.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	stdout, stderr, code := runner.Run(dep.Name, args...)
	if code != 0 {
		logger.Debugf("dependency %s: version query exited %d: %s", dep.Name, code, strings.TrimSpace(stderr))
		return dep
	}

	dep.Present = true
	dep.DetectedVersion = utils.ExtractVersionToken(stdout)
	if dep.DetectedVersion == "" {
		dep.DetectedVersion = utils.ExtractVersionToken(stderr)
	}
	return dep
}

// deficient applies the report rule: absent, unanswerable, or below the
// minimum version.
func deficient(dep models.Dependency) bool {
	if !dep.Present {
		return true
	}
	if dep.MinVersion == "" {
		return false
	}
	detected, err := utils.ParseVersion(dep.DetectedVersion)
	if err != nil {
		// Version query succeeded but its output is unusable; treat as
		// an unsatisfiable version requirement.
		return true
	}
	minimum, err := utils.ParseVersion(dep.MinVersion)
	if err != nil {
		return true
	}
	return utils.CompareVersionCore(detected, minimum) < 0
}
