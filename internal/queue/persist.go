package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"llstore/internal/logging"
	"llstore/internal/task"
)

// persistKey is the durable record slot for the active task.
const persistKey = "current_install_task"

const persistTimeout = 5 * time.Second

// persistCurrentLocked writes the active task's JSON snapshot. Persistence
// failures are logged and swallowed: losing the record only degrades crash
// recovery, it must never fail a live install.
func (s *Store) persistCurrentLocked() {
	if s.state == nil || s.current == nil {
		return
	}
	payload, err := json.Marshal(s.current)
	if err != nil {
		s.logger.Warn("marshal active task", logging.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.state.Put(ctx, persistKey, string(payload)); err != nil {
		s.logger.Warn("persist active task", logging.Error(err))
	}
}

// clearPersistedLocked removes the durable record after a task finishes.
func (s *Store) clearPersistedLocked() {
	if s.state == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.state.Delete(ctx, persistKey); err != nil {
		s.logger.Warn("clear persisted task", logging.Error(err))
	}
}

// CheckRecovery reconciles a task record left behind by an earlier session.
// When the recorded app shows up in the installed list the task is finalized
// as a success; otherwise it is finalized as failed, since the daemon died
// before the install completed. Either way the record is cleared and the
// finalized task lands in history. Returns the recovered task, or nil when
// there was nothing to recover.
//
// Call this before accepting any new enqueue so the recovered task cannot
// race a fresh install of the same app.
func (s *Store) CheckRecovery(ctx context.Context, installed []InstalledRef) (*task.InstallTask, error) {
	if s.state == nil {
		return nil, nil
	}

	raw, found, err := s.state.Get(ctx, persistKey)
	if err != nil {
		return nil, fmt.Errorf("read persisted task: %w", err)
	}
	if !found {
		return nil, nil
	}

	var recovered task.InstallTask
	if err := json.Unmarshal([]byte(raw), &recovered); err != nil {
		s.logger.Warn("discarding corrupt task record", logging.Error(err))
		if delErr := s.state.Delete(ctx, persistKey); delErr != nil {
			s.logger.Warn("clear corrupt task record", logging.Error(delErr))
		}
		return nil, nil
	}

	confirmed := installedMatch(&recovered, installed)
	now := time.Now()
	if confirmed {
		recovered.MarkSuccess(now, "Install confirmed after restart")
	} else {
		recovered.MarkFailed(now, "previous session ended before the install finished", nil, "")
	}

	s.mu.Lock()
	s.pushHistoryLocked(&recovered)
	s.mu.Unlock()

	if err := s.state.Delete(ctx, persistKey); err != nil {
		s.logger.Warn("clear recovered task record", logging.Error(err))
	}

	s.logger.Info("recovered interrupted install",
		logging.String("app_id", recovered.AppID),
		logging.String("task_id", recovered.ID),
		logging.Bool("confirmed", confirmed))
	name := recovered.App.DisplayName()
	s.notify(func(ctx context.Context) error {
		return s.notifier.NotifyRecovery(ctx, name, confirmed)
	})

	return recovered.Clone(), nil
}

// installedMatch reports whether the recovered task's app appears in the
// installed list. A task without a pinned version matches on app id alone.
func installedMatch(t *task.InstallTask, installed []InstalledRef) bool {
	for _, ref := range installed {
		if ref.AppID != t.AppID {
			continue
		}
		if t.Version == "" || ref.Version == t.Version {
			return true
		}
	}
	return false
}
