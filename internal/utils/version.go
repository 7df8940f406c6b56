package utils

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var versionTokenPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

/**
 * Parse a semantic version string
 * @param {string} raw - Version string, optional "v" prefix tolerated
 * @returns {*goversion.Version} Parsed version
 * @returns {error} Parse failure
 */
func ParseVersion(raw string) (*goversion.Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if trimmed == "" {
		return nil, fmt.Errorf("empty version string")
	}
	ver, err := goversion.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid version '%s': %v", raw, err)
	}
	return ver, nil
}

// MustVersion parses a version known valid at compile time. Reserved for
// fixed registries and tests; panics on malformed input.
func MustVersion(raw string) *goversion.Version {
	ver, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return ver
}

/**
 * Compare two versions by their numeric core
 * @returns {int} <0 if a<b, 0 if equal, >0 if a>b
 * @description
 * - Pre-release and build metadata are ignored; ordering is
 *   major.minor.patch, numeric per segment
 */
func CompareVersionCore(a, b *goversion.Version) int {
	return a.Core().Compare(b.Core())
}

/**
 * Extract the first version-looking token from command output
 * @param {string} output - Raw stdout of a version query (e.g. "Docker version 24.0.7, build afdd53b")
 * @returns {string} First major.minor[.patch] token, empty if none found
 */
func ExtractVersionToken(output string) string {
	return versionTokenPattern.FindString(output)
}
