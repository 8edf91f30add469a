package ipc

import (
	"time"

	"llstore/internal/deps"
	"llstore/internal/llcli"
	"llstore/internal/task"
	"llstore/internal/updates"
)

// TaskItem is the wire representation of an install task.
type TaskItem = task.InstallTask

// InstalledApp mirrors one installed package.
type InstalledApp = llcli.App

// UpdateItem describes one available upgrade.
type UpdateItem = updates.Update

// DependencyStatus describes availability of an external tool.
type DependencyStatus = deps.Status

// InstallRequest queues one install.
type InstallRequest struct {
	AppID   string `json:"app_id"`
	Version string `json:"version,omitempty"`
	Force   bool   `json:"force,omitempty"`
}

// InstallResponse reports the task handling the request. Created is false
// when the app was already queued and the existing task was reused.
type InstallResponse struct {
	TaskID  string `json:"task_id"`
	Created bool   `json:"created"`
}

// InstallBatchRequest queues several installs at once.
type InstallBatchRequest struct {
	Items []InstallRequest `json:"items"`
}

// InstallBatchResponse lists ids of the newly created tasks.
type InstallBatchResponse struct {
	TaskIDs []string `json:"task_ids"`
}

// QueueListRequest fetches the queue snapshot.
type QueueListRequest struct{}

// QueueListResponse carries the active task, the pending queue, and the
// finished-task history (newest first).
type QueueListResponse struct {
	Current *TaskItem  `json:"current,omitempty"`
	Queue   []TaskItem `json:"queue"`
	History []TaskItem `json:"history"`
}

// QueueRemoveRequest removes a pending task by id.
type QueueRemoveRequest struct {
	TaskID string `json:"task_id"`
}

// QueueRemoveResponse reports whether a task was removed.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearHistoryRequest drops all finished tasks.
type ClearHistoryRequest struct{}

// ClearHistoryResponse confirms the clear.
type ClearHistoryResponse struct {
	Cleared bool `json:"cleared"`
}

// AppStatusRequest fetches the most relevant task for an app.
type AppStatusRequest struct {
	AppID string `json:"app_id"`
}

// AppStatusResponse carries the task, or nil when the app was never queued.
type AppStatusResponse struct {
	Task *TaskItem `json:"task,omitempty"`
}

// CancelRequest stops an app's install.
type CancelRequest struct {
	AppID string `json:"app_id"`
}

// CancelResponse reports the cancellation outcome.
type CancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

// InstalledRequest fetches the installed-app snapshot.
type InstalledRequest struct{}

// InstalledResponse lists installed packages.
type InstalledResponse struct {
	Apps []InstalledApp `json:"apps"`
}

// UpdatesRequest fetches available upgrades.
type UpdatesRequest struct{}

// UpdatesResponse lists available upgrades.
type UpdatesResponse struct {
	Updates []UpdateItem `json:"updates"`
}

// SearchRequest queries the catalog.
type SearchRequest struct {
	Keyword string `json:"keyword"`
}

// SearchResponse lists matching catalog entries.
type SearchResponse struct {
	Results []task.AppInfo `json:"results"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse summarizes the daemon.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    time.Time          `json:"started_at"`
	LockPath     string             `json:"lock_path"`
	StateDBPath  string             `json:"state_db_path"`
	QueueStats   map[string]int     `json:"queue_stats"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse confirms the shutdown was initiated.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// PruneRequest removes unused package layers.
type PruneRequest struct{}

// PruneResponse carries the installer's prune report.
type PruneResponse struct {
	Report string `json:"report"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
