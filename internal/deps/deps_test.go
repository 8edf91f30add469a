package deps_test

import (
	"testing"

	"llstore/internal/deps"
)

func TestCheckBinariesReportsAvailability(t *testing.T) {
	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Shell", Command: "sh", Description: "posix shell"},
		{Name: "Missing", Command: "definitely-not-a-real-binary-xyz"},
		{Name: "Unconfigured", Command: "  "},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available {
		t.Errorf("expected sh to be available: %+v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Errorf("expected missing binary to fail with detail: %+v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Errorf("expected unconfigured command detail: %+v", results[2])
	}
}
