package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks config values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		problems = append(problems, "paths.state_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if strings.TrimSpace(c.Paths.Socket) == "" {
		problems = append(problems, "paths.socket is required")
	}
	if strings.TrimSpace(c.Installer.Binary) == "" {
		problems = append(problems, "installer.binary is required")
	}
	if c.Installer.InstallTimeout < 0 {
		problems = append(problems, "installer.install_timeout must not be negative")
	}
	if c.Installer.MinFreeSpaceGiB < 0 {
		problems = append(problems, "installer.min_free_space_gib must not be negative")
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		problems = append(problems, "catalog.timeout_seconds must be positive")
	}
	if c.Workflow.EventBuffer <= 0 {
		problems = append(problems, "workflow.event_buffer must be positive")
	}
	if c.Workflow.HistoryLimit < 0 {
		problems = append(problems, "workflow.history_limit must not be negative")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
