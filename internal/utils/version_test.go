package utils

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	for _, raw := range []string{"1.2.3", "v1.2.3", " 2.0.0 "} {
		if _, err := ParseVersion(raw); err != nil {
			t.Errorf("ParseVersion(%q): %v", raw, err)
		}
	}
	for _, raw := range []string{"", "abc", "1.x.3"} {
		if _, err := ParseVersion(raw); err == nil {
			t.Errorf("ParseVersion(%q) should fail", raw)
		}
	}
}

/**
 * Test core version comparison
 * @description
 * - Ordering is numeric per segment
 * - Pre-release and build metadata never influence the result
 */
func TestCompareVersionCore(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2.0", "1.10.0", -1},
		{"2.0.0", "1.99.99", 1},
		{"1.0.0-rc.1", "1.0.0", 0},
		{"1.0.0+build.5", "1.0.0", 0},
		{"0.9.0", "0.10.0", -1},
	}
	for _, tc := range cases {
		got := CompareVersionCore(MustVersion(tc.a), MustVersion(tc.b))
		if (got < 0 && tc.want >= 0) || (got == 0 && tc.want != 0) || (got > 0 && tc.want <= 0) {
			t.Errorf("CompareVersionCore(%s, %s) = %d, want sign %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestExtractVersionToken(t *testing.T) {
	cases := map[string]string{
		"Docker version 24.0.7, build afdd53b": "24.0.7",
		"git version 2.39.2":                   "2.39.2",
		"curl 8.1 (x86_64-pc-linux-gnu)":       "8.1",
		"no digits here":                       "",
	}
	for output, want := range cases {
		if got := ExtractVersionToken(output); got != want {
			t.Errorf("ExtractVersionToken(%q) = %q, want %q", output, got, want)
		}
	}
}
