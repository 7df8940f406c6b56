package services

import (
	"encoding/json"
	"fmt"

	goversion "github.com/hashicorp/go-version"

	"panelix-setup/internal/config"
	"panelix-setup/internal/models"
	"panelix-setup/internal/utils"
)

/**
 *	一个发布版本的地址信息
 */
type ReleaseAddr struct {
	Version     string `json:"version"`     // SemVer版本号
	ArtifactUrl string `json:"artifactUrl"` // tar.gz包地址
	Sha256      string `json:"sha256"`      // 包的sha256校验值
}

/**
 *	指定平台的发布信息：最新版本和历史版本列表
 */
type ReleaseManifest struct {
	Product  string        `json:"product"`
	Os       string        `json:"os"`
	Arch     string        `json:"arch"`
	Newest   ReleaseAddr   `json:"newest"`
	Versions []ReleaseAddr `json:"versions"`
}

/**
 * Fetch the release manifest for one platform
 * @param {models.PlatformInfo} platform - Probed host platform
 * @returns {*ReleaseManifest} parsed manifest
 * @description
 * - Manifest layout on the release server:
 *   <base-url>/panelix/<os>/<arch>/platform.json
 */
func FetchManifest(platform *models.PlatformInfo) (*ReleaseManifest, error) {
	osName := "linux"
	if platform.OSFamily == models.OSMacOS {
		osName = "darwin"
	}
	urlStr := fmt.Sprintf("%s/panelix/%s/%s/platform.json",
		config.Config.Upgrade.BaseUrl, osName, platform.Arch)

	data, err := utils.GetBytes(urlStr, nil, utils.DefaultFetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest %s: %w", urlStr, err)
	}
	manifest := &ReleaseManifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", urlStr, err)
	}
	return manifest, nil
}

/**
 * Select the release to install or update to
 * @param {*ReleaseManifest} manifest - Platform manifest
 * @param {string} target - Requested version, empty selects the newest
 * @returns {*ReleaseAddr} chosen release
 * @description
 * - A requested version must exist in the manifest's version list
 */
func (m *ReleaseManifest) Select(target string) (*ReleaseAddr, error) {
	if target == "" {
		if m.Newest.Version == "" {
			return nil, fmt.Errorf("manifest for %s/%s has no newest version", m.Os, m.Arch)
		}
		return &m.Newest, nil
	}

	want, err := utils.ParseVersion(target)
	if err != nil {
		return nil, fmt.Errorf("requested version %q: %w", target, err)
	}
	for i := range m.Versions {
		have, err := utils.ParseVersion(m.Versions[i].Version)
		if err != nil {
			continue
		}
		if have.Equal(want) {
			return &m.Versions[i], nil
		}
	}
	if newest, err := utils.ParseVersion(m.Newest.Version); err == nil && newest.Equal(want) {
		return &m.Newest, nil
	}
	return nil, fmt.Errorf("version %s is not published for %s/%s", target, m.Os, m.Arch)
}

// NewestVersion parses the manifest's newest version. Returns nil when
// the manifest is empty or malformed.
func (m *ReleaseManifest) NewestVersion() *goversion.Version {
	v, err := utils.ParseVersion(m.Newest.Version)
	if err != nil {
		return nil
	}
	return v
}
