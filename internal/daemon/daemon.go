// Package daemon wires the long-running install orchestrator: the single
// instance lock, the durable state store, the installer client, the event
// bridge, and the queue store. The IPC server fronts a Daemon; the CLI
// never touches these pieces directly.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"llstore/internal/bridge"
	"llstore/internal/catalog"
	"llstore/internal/config"
	"llstore/internal/deps"
	"llstore/internal/events"
	"llstore/internal/installed"
	"llstore/internal/llcli"
	"llstore/internal/logging"
	"llstore/internal/notifications"
	"llstore/internal/preflight"
	"llstore/internal/queue"
	"llstore/internal/statestore"
	"llstore/internal/updates"
)

// ErrAlreadyRunning indicates another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another daemon instance is running")

// Daemon owns the orchestrator's components and their lifecycle.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	lock      *flock.Flock
	lockPath  string
	state     *statestore.Store
	bus       *events.Bus
	installer *llcli.CLI
	store     *queue.Store
	bridge    *bridge.Bridge
	installed *installed.Service
	catalog   *catalog.Client
	updates   *updates.Service
	notifier  notifications.Service

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  time.Time
	running  bool
	runMu    sync.Mutex
	shutdown chan struct{}
	stopOnce sync.Once
}

// New acquires the instance lock and builds the component graph. The
// daemon is not processing until Start is called.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "llstored.lock")
	lock := flock.New(lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !acquired {
		return nil, ErrAlreadyRunning
	}

	state, err := statestore.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := events.NewBus()
	installer := llcli.NewCLI(bus,
		llcli.WithBinary(cfg.Installer.Binary),
		llcli.WithInstallTimeout(time.Duration(cfg.Installer.InstallTimeout)*time.Second),
		llcli.WithLogger(logging.NewComponentLogger(logger, "llcli")),
	)
	notifier := notifications.NewService(cfg)
	store := queue.NewStore(installer, state,
		logging.NewComponentLogger(logger, "queue"),
		queue.WithNotifier(notifier),
		queue.WithHistoryLimit(cfg.Workflow.HistoryLimit),
		queue.WithBaseContext(ctx),
	)
	installedSvc := installed.NewService(installer, cfg.Catalog.Language,
		installed.WithBaseServices(cfg.Installer.IncludeBaseServices))
	catalogClient := catalog.New(cfg, logging.NewComponentLogger(logger, "catalog"))
	updatesSvc := updates.NewService(installedSvc, catalogClient,
		logging.NewComponentLogger(logger, "updates"))

	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		lock:      lock,
		lockPath:  lockPath,
		state:     state,
		bus:       bus,
		installer: installer,
		store:     store,
		bridge:    bridge.New(bus, store, logging.NewComponentLogger(logger, "bridge"), cfg.Workflow.EventBuffer),
		installed: installedSvc,
		catalog:   catalogClient,
		updates:   updatesSvc,
		notifier:  notifier,
		ctx:       ctx,
		cancel:    cancel,
		shutdown:  make(chan struct{}),
	}, nil
}

// Start runs crash recovery and begins consuming installer events. Recovery
// completes before Start returns, so callers can bring up the IPC surface
// knowing no new enqueue can race the recovered task.
func (d *Daemon) Start() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.running {
		return nil
	}

	for _, result := range preflight.RunAll(d.ctx, d.cfg) {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	refs, err := d.installed.Refs(d.ctx)
	if err != nil {
		d.logger.Warn("installed-app snapshot unavailable for recovery", logging.Error(err))
		refs = nil
	}
	if _, err := d.store.CheckRecovery(d.ctx, refs); err != nil {
		d.logger.Warn("crash recovery incomplete", logging.Error(err))
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.bridge.Run(d.ctx)
	}()

	d.started = time.Now()
	d.running = true
	d.logger.Info("daemon started",
		logging.Int("pid", os.Getpid()),
		logging.String("state_db", d.state.Path()))
	return nil
}

// Stop halts event processing and signals the run loop to exit.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.runMu.Lock()
		d.running = false
		d.runMu.Unlock()
		d.cancel()
		d.wg.Wait()
		close(d.shutdown)
		d.logger.Info("daemon stopped")
	})
}

// ShutdownRequested is closed once Stop has completed. The main process
// blocks on it so an IPC stop request can terminate the daemon.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Close releases the state database and the instance lock.
func (d *Daemon) Close() {
	d.Stop()
	if err := d.state.Close(); err != nil {
		d.logger.Warn("close state store", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release instance lock", logging.Error(err))
	}
	_ = os.Remove(d.lockPath)
}

// Status summarizes the daemon for the CLI status command.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockPath     string
	StateDBPath  string
	QueueStats   map[string]int
	Dependencies []deps.Status
}

// Status reports run state, queue counts, and tool availability.
func (d *Daemon) Status() Status {
	d.runMu.Lock()
	running := d.running
	started := d.started
	d.runMu.Unlock()

	snap := d.store.Snapshot()
	stats := map[string]int{
		"installing": 0,
		"pending":    len(snap.Queue),
		"history":    len(snap.History),
	}
	if snap.Current != nil {
		stats["installing"] = 1
	}

	return Status{
		Running:      running,
		PID:          os.Getpid(),
		StartedAt:    started,
		LockPath:     d.lockPath,
		StateDBPath:  d.state.Path(),
		QueueStats:   stats,
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
}
