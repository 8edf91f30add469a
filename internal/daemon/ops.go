package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"llstore/internal/llcli"
	"llstore/internal/logging"
	"llstore/internal/queue"
	"llstore/internal/task"
	"llstore/internal/updates"
)

const catalogLookupTimeout = 5 * time.Second

// EnqueueEntry is one install request from the IPC surface.
type EnqueueEntry struct {
	AppID   string
	Version string
	Force   bool
}

// Enqueue resolves catalog metadata for the app and queues an install.
// A catalog miss never blocks the install; the task carries the bare id.
func (d *Daemon) Enqueue(ctx context.Context, entry EnqueueEntry) (string, bool, error) {
	info := d.lookupApp(ctx, entry.AppID)
	return d.store.Enqueue(info, task.Options{Version: entry.Version, Force: entry.Force})
}

// EnqueueBatch queues several installs, returning ids of the newly created
// tasks in request order.
func (d *Daemon) EnqueueBatch(ctx context.Context, entries []EnqueueEntry) []string {
	items := make([]queue.BatchItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, queue.BatchItem{
			App:     d.lookupApp(ctx, entry.AppID),
			Options: task.Options{Version: entry.Version, Force: entry.Force},
		})
	}
	return d.store.EnqueueBatch(items)
}

func (d *Daemon) lookupApp(ctx context.Context, appID string) task.AppInfo {
	lookupCtx, cancel := context.WithTimeout(ctx, catalogLookupTimeout)
	defer cancel()
	info, err := d.catalog.AppInfo(lookupCtx, appID)
	if err != nil {
		d.logger.Debug("catalog lookup failed, queuing with bare id",
			logging.String("app_id", appID),
			logging.Error(err))
		return task.AppInfo{AppID: appID}
	}
	return *info
}

// QueueSnapshot returns a copy of the queue state.
func (d *Daemon) QueueSnapshot() queue.Snapshot {
	return d.store.Snapshot()
}

// RemoveFromQueue removes a pending task by id.
func (d *Daemon) RemoveFromQueue(taskID string) bool {
	return d.store.RemoveFromQueue(taskID)
}

// ClearHistory drops all finished tasks.
func (d *Daemon) ClearHistory() {
	d.store.ClearHistory()
}

// AppStatus returns the most relevant task for the app, or nil.
func (d *Daemon) AppStatus(appID string) *task.InstallTask {
	return d.store.AppStatus(appID)
}

// CancelInstall stops the app's install: a running install is killed, a
// pending task is removed from the queue.
func (d *Daemon) CancelInstall(appID string) (string, error) {
	status := d.store.AppStatus(appID)
	if status == nil {
		return "", fmt.Errorf("no install task for %s", appID)
	}
	switch status.Status {
	case task.StatusInstalling:
		if err := d.installer.Cancel(appID); err != nil {
			return "", err
		}
		return "cancelling running install", nil
	case task.StatusPending:
		if !d.store.RemoveFromQueue(status.ID) {
			return "", fmt.Errorf("task for %s left the queue before it could be removed", appID)
		}
		return "removed from queue", nil
	default:
		return "", fmt.Errorf("install for %s already finished", appID)
	}
}

// Installed returns the installed-app snapshot.
func (d *Daemon) Installed(ctx context.Context) ([]llcli.App, error) {
	return d.installed.Snapshot(ctx)
}

// Updates returns the available upgrades.
func (d *Daemon) Updates(ctx context.Context) ([]updates.Update, error) {
	return d.updates.Check(ctx)
}

// Search queries the catalog for packages matching the keyword.
func (d *Daemon) Search(ctx context.Context, keyword string) ([]task.AppInfo, error) {
	if keyword == "" {
		return nil, errors.New("search keyword required")
	}
	return d.catalog.Search(ctx, keyword)
}

// Prune removes unused package layers via the installer.
func (d *Daemon) Prune(ctx context.Context) (string, error) {
	return d.installer.Prune(ctx)
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}
