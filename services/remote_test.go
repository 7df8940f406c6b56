package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func manifestFixture() *ReleaseManifest {
	return &ReleaseManifest{
		Product: "panelix", Os: "linux", Arch: "amd64",
		Newest: ReleaseAddr{Version: "2.0.0", ArtifactUrl: "https://releases.test/2.0.0.tar.gz", Sha256: "aa"},
		Versions: []ReleaseAddr{
			{Version: "1.1.0", ArtifactUrl: "https://releases.test/1.1.0.tar.gz", Sha256: "bb"},
			{Version: "1.2.0", ArtifactUrl: "https://releases.test/1.2.0.tar.gz", Sha256: "cc"},
			{Version: "2.0.0", ArtifactUrl: "https://releases.test/2.0.0.tar.gz", Sha256: "aa"},
		},
	}
}

func TestManifestSelect(t *testing.T) {
	manifest := manifestFixture()

	newest, err := manifest.Select("")
	if err != nil || newest.Version != "2.0.0" {
		t.Fatalf("empty target should pick newest: %v %v", newest, err)
	}

	pinned, err := manifest.Select("1.2.0")
	if err != nil || pinned.ArtifactUrl != "https://releases.test/1.2.0.tar.gz" {
		t.Fatalf("pinned version: %v %v", pinned, err)
	}

	// optional v prefix is tolerated
	prefixed, err := manifest.Select("v1.1.0")
	if err != nil || prefixed.Version != "1.1.0" {
		t.Fatalf("v-prefixed target: %v %v", prefixed, err)
	}

	if _, err := manifest.Select("9.9.9"); err == nil || !strings.Contains(err.Error(), "not published") {
		t.Fatalf("unpublished version should be refused, got %v", err)
	}
	if _, err := manifest.Select("not-a-version"); err == nil {
		t.Fatal("malformed target should be refused")
	}
}

func TestInstalledStateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	state, err := ReadInstalledState(dir, "/var/lib/panelix")
	if err != nil || state != nil {
		t.Fatalf("missing VERSION file should mean no installation: %v %v", state, err)
	}

	if err := WriteVersionFile(dir, "1.2.3"); err != nil {
		t.Fatal(err)
	}
	state, err = ReadInstalledState(dir, "/var/lib/panelix")
	if err != nil {
		t.Fatal(err)
	}
	if state.Version != "1.2.3" || state.InstallPath != dir {
		t.Errorf("state: %+v", state)
	}

	// a corrupted VERSION file is an error, not a fresh install
	if err := os.WriteFile(filepath.Join(dir, VersionFileName), []byte("garbage\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadInstalledState(dir, ""); err == nil {
		t.Fatal("malformed version must be reported")
	}
}
