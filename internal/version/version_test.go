package version_test

import (
	"testing"

	"llstore/internal/version"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b     string
		expected int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2.0", "1.1.9", 1},
		{"1.1.9", "1.2.0", -1},
		{"2.0", "2.0.0", 0},
		{"2.0.1", "2.0", 1},
		{"1.9.9", "1.10.0", -1},
		{"5.15.8.1", "5.15.8", 1},
		{"1.0.0-beta", "1.0.0-alpha", 1},
		{"1.0_2", "1.0.1", 1},
		{"", "", 0},
		{"1", "", 1},
	}

	for _, tc := range cases {
		if got := version.Compare(tc.a, tc.b); got != tc.expected {
			t.Errorf("Compare(%q, %q) = %d, expected %d", tc.a, tc.b, got, tc.expected)
		}
	}
}

func TestNewer(t *testing.T) {
	if !version.Newer("1.10.0", "1.9.9") {
		t.Fatal("expected 1.10.0 to be newer than 1.9.9")
	}
	if version.Newer("1.9.9", "1.9.9") {
		t.Fatal("equal versions are not newer")
	}
	if version.Newer("1.8.0", "1.9.9") {
		t.Fatal("older version reported as newer")
	}
}
