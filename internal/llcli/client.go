package llcli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"llstore/internal/events"
	"llstore/internal/logging"
	"llstore/internal/task"
)

var commandContext = exec.CommandContext

// tailLines bounds the output kept for error classification.
const tailLines = 20

// App is one installed package as reported by ll-cli list --json.
type App struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Arch        string `json:"arch"`
	Channel     string `json:"channel"`
	Module      string `json:"module"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// Client defines the installer surface exposed to the daemon.
type Client interface {
	Install(ctx context.Context, appID, version string, force bool) error
	Cancel(appID string) error
	ListInstalled(ctx context.Context) ([]App, error)
	Prune(ctx context.Context) (string, error)
	Version(ctx context.Context) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithInstallTimeout bounds how long one install may run.
func WithInstallTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger attaches a logger for process lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CLI) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// CLI wraps the ll-cli command-line package manager.
type CLI struct {
	binary  string
	timeout time.Duration
	bus     *events.Bus
	logger  *slog.Logger

	mu        sync.Mutex
	running   map[string]*exec.Cmd
	cancelled map[string]bool
}

// NewCLI constructs a CLI client publishing to the given bus.
func NewCLI(bus *events.Bus, opts ...Option) *CLI {
	cli := &CLI{
		binary:    "ll-cli",
		timeout:   time.Hour,
		bus:       bus,
		logger:    logging.NewNop(),
		running:   make(map[string]*exec.Cmd),
		cancelled: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Install launches ll-cli install for the app and returns once the process
// is running. Progress and the final outcome arrive on the event bus.
func (c *CLI) Install(ctx context.Context, appID, version string, force bool) error {
	if strings.TrimSpace(appID) == "" {
		return errors.New("app id required")
	}

	ref := appID
	if version != "" {
		ref = appID + "/" + version
	}
	args := []string{"install", ref}
	if force {
		args = append(args, "--force")
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	cmd := commandContext(runCtx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	// Reserve the app slot under the same lock as the busy check so two
	// concurrent installs for one app cannot both spawn a process.
	c.mu.Lock()
	if _, busy := c.running[appID]; busy {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("install already running for %s", appID)
	}
	c.running[appID] = cmd
	delete(c.cancelled, appID)
	c.mu.Unlock()

	if err := cmd.Start(); err != nil {
		c.mu.Lock()
		delete(c.running, appID)
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("start %s install: %w", c.binary, err)
	}

	c.logger.Info("install process started",
		logging.String("app_id", appID),
		logging.String("ref", ref))

	go c.watch(runCtx, cancel, cmd, stdout, appID)
	return nil
}

// watch drains process output into bus events and publishes the terminal
// outcome after the process exits.
func (c *CLI) watch(ctx context.Context, cancel context.CancelFunc, cmd *exec.Cmd, stdout io.Reader, appID string) {
	defer cancel()

	var tail []string
	scanner := bufio.NewScanner(stdout)
	scanner.Split(scanCRLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}
		if percent, ok := parseProgress(line); ok {
			c.bus.Publish(events.Event{AppID: appID, Kind: events.KindProgress, Percent: percent, Status: line})
		} else {
			c.bus.Publish(events.Event{AppID: appID, Kind: events.KindMessage, Status: line})
		}
	}

	waitErr := cmd.Wait()

	c.mu.Lock()
	delete(c.running, appID)
	wasCancelled := c.cancelled[appID]
	delete(c.cancelled, appID)
	c.mu.Unlock()

	output := strings.Join(tail, "\n")
	switch {
	case waitErr == nil:
		c.logger.Info("install process finished", logging.String("app_id", appID))
		c.bus.Publish(events.Event{AppID: appID, Kind: events.KindProgress, Percent: 100, Status: "Install complete"})
	case wasCancelled:
		code := task.CodeCancelled
		c.logger.Info("install process cancelled", logging.String("app_id", appID))
		c.bus.Publish(events.Event{AppID: appID, Kind: events.KindError, Code: &code, Status: task.CodeMessage(&code, ""), Detail: output})
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		code := task.CodeProgressTimeout
		c.logger.Error("install process timed out", logging.String("app_id", appID))
		c.bus.Publish(events.Event{AppID: appID, Kind: events.KindError, Code: &code, Status: task.CodeMessage(&code, ""), Detail: output})
	default:
		code := task.ClassifyOutput(output)
		c.logger.Error("install process failed",
			logging.String("app_id", appID),
			logging.Error(waitErr))
		c.bus.Publish(events.Event{AppID: appID, Kind: events.KindError, Code: &code, Status: waitErr.Error(), Detail: output})
	}
}

// Cancel kills the running install process for the app. The resulting exit
// is reported on the bus with the cancelled code rather than as a failure.
func (c *CLI) Cancel(appID string) error {
	c.mu.Lock()
	cmd := c.running[appID]
	if cmd == nil || cmd.Process == nil {
		c.mu.Unlock()
		return fmt.Errorf("no running install for %s", appID)
	}
	c.cancelled[appID] = true
	c.mu.Unlock()

	c.logger.Info("cancelling install", logging.String("app_id", appID))
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill install process: %w", err)
	}
	return nil
}

// ListInstalled returns the installed packages.
func (c *CLI) ListInstalled(ctx context.Context) ([]App, error) {
	cmd := commandContext(ctx, c.binary, "list", "--json") //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list installed apps: %w", err)
	}
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil, nil
	}
	var apps []App
	if err := json.Unmarshal([]byte(trimmed), &apps); err != nil {
		return nil, fmt.Errorf("parse installed app list: %w", err)
	}
	return apps, nil
}

// Prune removes unused package layers and returns the tool's report.
func (c *CLI) Prune(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "prune") //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("prune packages: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Version reports the installed ll-cli version string.
func (c *CLI) Version(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "--version") //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("query %s version: %w", c.binary, err)
	}
	return strings.TrimSpace(string(output)), nil
}

var _ Client = (*CLI)(nil)
