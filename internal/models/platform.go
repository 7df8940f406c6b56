package models

/**
 * Canonical operating system family
 * @description
 * - Derivative distributions are collapsed into their upstream base
 *   (e.g. linuxmint -> ubuntu, rocky -> rhel, manjaro -> arch)
 * - OSUnknown means no dispatch entry exists for the host
 */
type OSFamily string

const (
	OSUbuntu  OSFamily = "ubuntu"
	OSDebian  OSFamily = "debian"
	OSRHEL    OSFamily = "rhel"
	OSArch    OSFamily = "arch"
	OSMacOS   OSFamily = "macos"
	OSUnknown OSFamily = "unknown"
)

// Canonical CPU architecture. Anything outside this table is rejected
// at detection time rather than guessed.
type Architecture string

const (
	ArchAMD64 Architecture = "amd64"
	ArchARM64 Architecture = "arm64"
	ArchARMv7 Architecture = "armv7"
)

/**
 * Host platform description, created once at process start
 * @property {OSFamily} osFamily - Canonical OS family
 * @property {string} osVersion - OS release version, may be empty
 * @property {Architecture} arch - Canonical CPU architecture
 * @property {bool} isContainer - Advisory flag, never blocks installation
 */
type PlatformInfo struct {
	OSFamily    OSFamily     `json:"osFamily"`
	OSVersion   string       `json:"osVersion"`
	Arch        Architecture `json:"arch"`
	IsContainer bool         `json:"isContainer"`
}

func (p PlatformInfo) Label() string {
	label := string(p.OSFamily)
	if p.OSVersion != "" {
		label += " " + p.OSVersion
	}
	return label + " (" + string(p.Arch) + ")"
}
