package models

/**
 * External tool required by a Panelix installation
 * @property {string} name - Binary name looked up on PATH
 * @property {string} minVersion - Minimum semantic version, empty means presence only
 * @property {[]string} versionArgs - Arguments of the version query (default: --version)
 * @property {bool} present - Whether the binary was found and answered its version query
 * @property {string} detectedVersion - Version reported by the tool, empty if the query failed
 */
type Dependency struct {
	Name            string   `json:"name"`
	MinVersion      string   `json:"minVersion,omitempty"`
	VersionArgs     []string `json:"-"`
	Present         bool     `json:"present"`
	DetectedVersion string   `json:"detectedVersion,omitempty"`
}

/**
 * Result of a capability scan
 * @description
 * - Checked holds every dependency with its probe result filled in
 * - Deficiencies holds the subset that is missing or below minimum version
 */
type DeficiencyReport struct {
	Checked      []Dependency `json:"checked"`
	Deficiencies []Dependency `json:"deficiencies"`
}

// Satisfied reports whether every required tool is present at an
// acceptable version.
func (r DeficiencyReport) Satisfied() bool {
	return len(r.Deficiencies) == 0
}
