package platform

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"panelix-setup/internal/models"
)

// Distribution IDs collapsed into their upstream base. IDs absent from
// this table fall back through ID_LIKE before giving up.
var osFamilyAliases = map[string]models.OSFamily{
	"ubuntu":      models.OSUbuntu,
	"pop":         models.OSUbuntu,
	"linuxmint":   models.OSUbuntu,
	"elementary":  models.OSUbuntu,
	"zorin":       models.OSUbuntu,
	"neon":        models.OSUbuntu,
	"debian":      models.OSDebian,
	"raspbian":    models.OSDebian,
	"kali":        models.OSDebian,
	"rhel":        models.OSRHEL,
	"centos":      models.OSRHEL,
	"rocky":       models.OSRHEL,
	"almalinux":   models.OSRHEL,
	"fedora":      models.OSRHEL,
	"ol":          models.OSRHEL,
	"arch":        models.OSArch,
	"manjaro":     models.OSArch,
	"endeavouros": models.OSArch,
	"garuda":      models.OSArch,
	"arcolinux":   models.OSArch,
	"macos":       models.OSMacOS,
}

var archAliases = map[string]models.Architecture{
	"x86_64":  models.ArchAMD64,
	"amd64":   models.ArchAMD64,
	"aarch64": models.ArchARM64,
	"arm64":   models.ArchARM64,
	"armv7l":  models.ArchARMv7,
	"armhf":   models.ArchARMv7,
	"arm":     models.ArchARMv7,
	"armv7":   models.ArchARMv7,
}

/**
 * Collapse a distribution identifier into its canonical OS family
 * @param {string} id - Distribution ID as reported by /etc/os-release
 * @returns {models.OSFamily} Canonical family, OSUnknown if no mapping exists
 * @description
 * - Deterministic and idempotent: canonical names map to themselves
 */
func CanonicalizeFamily(id string) models.OSFamily {
	if family, ok := osFamilyAliases[strings.ToLower(strings.TrimSpace(id))]; ok {
		return family
	}
	return models.OSUnknown
}

/**
 * Normalize an architecture string into its canonical form
 * @param {string} arch - Raw architecture identifier (runtime.GOARCH or uname style)
 * @returns {models.Architecture} Canonical architecture
 * @returns {error} UnsupportedArchitectureError when the table has no entry; never guessed
 */
func CanonicalizeArch(arch string) (models.Architecture, error) {
	if canonical, ok := archAliases[strings.ToLower(strings.TrimSpace(arch))]; ok {
		return canonical, nil
	}
	return "", &models.UnsupportedArchitectureError{Arch: arch}
}

/**
 * Detect the host platform
 * @returns {*models.PlatformInfo} Canonical platform record, created once at process start
 * @returns {error} DetectionError if no OS identification mechanism exists,
 *                  UnsupportedArchitectureError for unknown architectures
 * @description
 * - Linux identity comes from /etc/os-release (ID, then ID_LIKE fallback)
 * - macOS identity comes from sw_vers
 * - Container detection is advisory metadata only and never blocks
 */
func Detect() (*models.PlatformInfo, error) {
	arch, err := CanonicalizeArch(runtime.GOARCH)
	if err != nil {
		return nil, err
	}

	switch runtime.GOOS {
	case "linux":
		family, version, err := detectLinux()
		if err != nil {
			return nil, err
		}
		return &models.PlatformInfo{
			OSFamily:    family,
			OSVersion:   version,
			Arch:        arch,
			IsContainer: detectContainer(),
		}, nil
	case "darwin":
		version, err := detectMacOSVersion()
		if err != nil {
			return nil, err
		}
		return &models.PlatformInfo{
			OSFamily:  models.OSMacOS,
			OSVersion: version,
			Arch:      arch,
		}, nil
	default:
		return nil, &models.DetectionError{Reason: "no OS identification mechanism for " + runtime.GOOS}
	}
}

func detectLinux() (models.OSFamily, string, error) {
	id, idLike, version, err := readOSRelease("/etc/os-release")
	if err != nil {
		// Some minimal systems only ship the usr-merge copy.
		id, idLike, version, err = readOSRelease("/usr/lib/os-release")
	}
	if err != nil {
		return models.OSUnknown, "", &models.DetectionError{Reason: "cannot read os-release: " + err.Error()}
	}

	family := CanonicalizeFamily(id)
	if family == models.OSUnknown {
		// 按ID_LIKE逐项回退
		for _, like := range strings.Fields(idLike) {
			if family = CanonicalizeFamily(like); family != models.OSUnknown {
				break
			}
		}
	}
	return family, version, nil
}

func readOSRelease(path string) (id, idLike, version string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ID="):
			id = strings.Trim(strings.TrimPrefix(line, "ID="), `"`)
		case strings.HasPrefix(line, "ID_LIKE="):
			idLike = strings.Trim(strings.TrimPrefix(line, "ID_LIKE="), `"`)
		case strings.HasPrefix(line, "VERSION_ID="):
			version = strings.Trim(strings.TrimPrefix(line, "VERSION_ID="), `"`)
		}
	}
	return id, idLike, version, scanner.Err()
}

func detectMacOSVersion() (string, error) {
	output, err := exec.Command("sw_vers", "-productVersion").Output()
	if err != nil {
		return "", &models.DetectionError{Reason: "sw_vers failed: " + err.Error()}
	}
	version := strings.TrimSpace(string(output))
	if version == "" {
		return "", &models.DetectionError{Reason: "sw_vers reported no version"}
	}
	return version, nil
}

// detectContainer checks the usual container markers. Purely advisory.
func detectContainer() bool {
	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}
	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	content := string(data)
	return strings.Contains(content, "docker") || strings.Contains(content, "container")
}
