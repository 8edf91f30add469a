package preflight

import (
	"context"

	"llstore/internal/config"
	"llstore/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace(cfg.Paths.StateDir, cfg.Installer.MinFreeSpaceGiB))
	results = append(results, CheckCatalog(ctx, cfg.Catalog.BaseURL))
	return results
}

// CheckSystemDeps evaluates the external tool requirements. Both the daemon
// and the CLI status command use this to avoid duplicating the list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "ll-cli",
			Command:     cfg.Installer.Binary,
			Description: "Required for package install and removal",
		},
		{
			Name:        "ostree",
			Command:     "ostree",
			Description: "Underlying layer storage used by the package manager",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

// AllPassed reports whether every result succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
