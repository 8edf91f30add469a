package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"llstore/internal/logging"
	"llstore/internal/notifications"
	"llstore/internal/task"
)

// Installer launches the external install for one app. Implementations
// return once the install has been initiated; completion and failure arrive
// out-of-band through the event bridge.
type Installer interface {
	Install(ctx context.Context, appID, version string, force bool) error
}

// Persister is the durable key-value surface the store records the active
// task in. Satisfied by statestore.Store.
type Persister interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// InstalledRef identifies one installed package for recovery reconciliation.
type InstalledRef struct {
	AppID   string
	Version string
}

// BatchItem is one entry of an EnqueueBatch request.
type BatchItem struct {
	App     task.AppInfo
	Options task.Options
}

// Snapshot is a point-in-time copy of the store for read surfaces. All
// tasks are deep copies; mutating them never touches store state.
type Snapshot struct {
	Current *task.InstallTask
	Queue   []*task.InstallTask
	History []*task.InstallTask
}

const defaultHistoryLimit = 50

// Option customizes a Store.
type Option func(*Store)

// WithNotifier attaches a notification service for terminal transitions.
func WithNotifier(svc notifications.Service) Option {
	return func(s *Store) { s.notifier = svc }
}

// WithHistoryLimit bounds the finished-task history.
func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithBaseContext sets the context passed to installer invocations. The
// daemon supplies its run context so in-flight installs stop on shutdown.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Store) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// Store is the single-writer install queue.
type Store struct {
	mu      sync.Mutex
	pending []*task.InstallTask
	current *task.InstallTask
	history []*task.InstallTask

	// drained-notification counters since the queue last went idle
	processed int
	failed    int

	installer    Installer
	state        Persister
	notifier     notifications.Service
	logger       *slog.Logger
	baseCtx      context.Context
	historyLimit int
}

// NewStore builds a queue store around the given installer and persister.
func NewStore(installer Installer, state Persister, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		installer:    installer,
		state:        state,
		logger:       logger,
		baseCtx:      context.Background(),
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue adds one install task. When a task for the same app is already
// pending or installing, the existing task's id is returned and created is
// false; no second task is created.
func (s *Store) Enqueue(app task.AppInfo, opts task.Options) (id string, created bool, err error) {
	s.mu.Lock()
	if existing := s.findActiveLocked(app.AppID); existing != nil {
		id = existing.ID
		s.mu.Unlock()
		s.logger.Debug("install already queued",
			logging.String("app_id", app.AppID),
			logging.String("task_id", id))
		return id, false, nil
	}

	t, err := task.New(app, opts)
	if err != nil {
		s.mu.Unlock()
		return "", false, err
	}
	s.pending = append(s.pending, t)
	s.mu.Unlock()

	s.logger.Info("install queued",
		logging.String("app_id", t.AppID),
		logging.String("task_id", t.ID),
		logging.String("version", t.Version))

	s.ProcessQueue()
	return t.ID, true, nil
}

// EnqueueBatch adds several installs at once, preserving request order.
// Duplicates, both against existing tasks and within the batch, are
// skipped. The returned ids cover only newly created tasks.
func (s *Store) EnqueueBatch(items []BatchItem) []string {
	ids := make([]string, 0, len(items))

	s.mu.Lock()
	for _, item := range items {
		if s.findActiveLocked(item.App.AppID) != nil {
			continue
		}
		t, err := task.New(item.App, item.Options)
		if err != nil {
			s.logger.Warn("skipping batch entry", logging.Error(err))
			continue
		}
		s.pending = append(s.pending, t)
		ids = append(ids, t.ID)
	}
	queued := len(ids)
	s.mu.Unlock()

	if queued > 0 {
		s.logger.Info("install batch queued", logging.Int("count", queued))
	}
	s.ProcessQueue()
	return ids
}

// ProcessQueue promotes the head of the queue into the active slot when no
// task is currently installing, then initiates the external install. It is
// safe to call at any time; a busy or empty queue makes it a no-op.
func (s *Store) ProcessQueue() {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return
	}
	if len(s.pending) == 0 {
		processed, failed := s.processed, s.failed
		s.processed, s.failed = 0, 0
		s.mu.Unlock()
		if processed+failed > 0 {
			s.logger.Info("install queue drained",
				logging.Int("processed", processed),
				logging.Int("failed", failed))
			s.notify(func(ctx context.Context) error {
				return s.notifier.NotifyQueueDrained(ctx, processed, failed)
			})
		}
		return
	}

	next := s.pending[0]
	s.pending = s.pending[1:]
	next.MarkInstalling(time.Now())
	s.current = next
	s.persistCurrentLocked()

	appID, version, force := next.AppID, next.Version, next.Force
	taskID := next.ID
	ctx := s.baseCtx
	s.mu.Unlock()

	s.logger.Info("install dispatched",
		logging.String("app_id", appID),
		logging.String("task_id", taskID))

	go func() {
		if err := s.installer.Install(ctx, appID, version, force); err != nil {
			code := task.ClassifyOutput(err.Error())
			s.logger.Error("install initiation failed",
				logging.String("app_id", appID),
				logging.Error(err))
			s.MarkFailed(appID, err.Error(), &code, "")
		}
	}()
}

// UpdateProgress records a progress report for the active task. Reports for
// any other app are stale and dropped.
func (s *Store) UpdateProgress(appID string, percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.AppID != appID {
		return
	}
	s.current.SetProgress(percent, message)
	s.persistCurrentLocked()
}

// UpdateMessage records a status line for the active task without touching
// its progress percentage.
func (s *Store) UpdateMessage(appID, message string) {
	if message == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.AppID != appID {
		return
	}
	s.current.Message = message
	s.persistCurrentLocked()
}

// MarkSuccess finalizes the active task as installed and dispatches the
// next queued task. Calls for a non-active app, including a repeated call
// for a task that already completed, are no-ops.
func (s *Store) MarkSuccess(appID string) {
	s.mu.Lock()
	if s.current == nil || s.current.AppID != appID {
		s.mu.Unlock()
		s.logger.Debug("ignoring stale success report", logging.String("app_id", appID))
		return
	}
	done := s.current
	done.MarkSuccess(time.Now(), "")
	s.current = nil
	s.pushHistoryLocked(done)
	s.processed++
	s.clearPersistedLocked()
	name := done.App.DisplayName()
	s.mu.Unlock()

	s.logger.Info("install completed",
		logging.String("app_id", done.AppID),
		logging.String("task_id", done.ID))
	s.notify(func(ctx context.Context) error {
		return s.notifier.NotifyInstallCompleted(ctx, name)
	})

	s.ProcessQueue()
}

// MarkFailed finalizes the active task as failed and dispatches the next
// queued task, so one failure never stalls the rest of the queue. Calls for
// a non-active app are no-ops.
func (s *Store) MarkFailed(appID, errMessage string, code *int, detail string) {
	s.mu.Lock()
	if s.current == nil || s.current.AppID != appID {
		s.mu.Unlock()
		s.logger.Debug("ignoring stale failure report", logging.String("app_id", appID))
		return
	}
	done := s.current
	done.MarkFailed(time.Now(), task.CodeMessage(code, errMessage), code, detail)
	s.current = nil
	s.pushHistoryLocked(done)
	s.failed++
	s.clearPersistedLocked()
	name := done.App.DisplayName()
	reason := done.ErrorMessage
	cancelled := done.Cancelled()
	s.mu.Unlock()

	if cancelled {
		s.logger.Info("install cancelled",
			logging.String("app_id", done.AppID),
			logging.String("task_id", done.ID))
		s.notify(func(ctx context.Context) error {
			return s.notifier.NotifyInstallCancelled(ctx, name)
		})
	} else {
		s.logger.Error("install failed",
			logging.String("app_id", done.AppID),
			logging.String("task_id", done.ID),
			logging.String("reason", reason))
		s.notify(func(ctx context.Context) error {
			return s.notifier.NotifyInstallFailed(ctx, name, reason)
		})
	}

	s.ProcessQueue()
}

// RemoveFromQueue removes a pending task by id. The active task cannot be
// removed this way; cancel it through the installer instead.
func (s *Store) RemoveFromQueue(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.pending {
		if t.ID == taskID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.logger.Info("task removed from queue",
				logging.String("app_id", t.AppID),
				logging.String("task_id", taskID))
			return true
		}
	}
	return false
}

// ClearHistory drops all finished tasks.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// IsAppInQueue reports whether the app has a pending or installing task.
func (s *Store) IsAppInQueue(appID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findActiveLocked(appID) != nil
}

// AppStatus returns the most relevant task for the app: the active task,
// then a pending task, then the most recent finished one. Nil when the app
// has never been queued.
func (s *Store) AppStatus(appID string) *task.InstallTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.AppID == appID {
		return s.current.Clone()
	}
	for _, t := range s.pending {
		if t.AppID == appID {
			return t.Clone()
		}
	}
	for _, t := range s.history {
		if t.AppID == appID {
			return t.Clone()
		}
	}
	return nil
}

// Snapshot returns a deep copy of the whole store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Current: s.current.Clone(),
		Queue:   make([]*task.InstallTask, 0, len(s.pending)),
		History: make([]*task.InstallTask, 0, len(s.history)),
	}
	for _, t := range s.pending {
		snap.Queue = append(snap.Queue, t.Clone())
	}
	for _, t := range s.history {
		snap.History = append(snap.History, t.Clone())
	}
	return snap
}

// findActiveLocked returns the pending or installing task for the app.
func (s *Store) findActiveLocked(appID string) *task.InstallTask {
	if s.current != nil && s.current.AppID == appID {
		return s.current
	}
	for _, t := range s.pending {
		if t.AppID == appID {
			return t
		}
	}
	return nil
}

// pushHistoryLocked prepends a finished task, newest first, trimming to the
// history limit.
func (s *Store) pushHistoryLocked(t *task.InstallTask) {
	s.history = append([]*task.InstallTask{t}, s.history...)
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
}

// notify runs a notification off the store's lock with a bounded deadline.
func (s *Store) notify(fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("notification failed", logging.Error(err))
		}
	}()
}
