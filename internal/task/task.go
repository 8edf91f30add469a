package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of an install task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInstalling Status = "installing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusInstalling,
	StatusSuccess,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ErrMissingAppID is returned when package metadata lacks an identifiable app id.
var ErrMissingAppID = errors.New("app id required")

// AppInfo is the package metadata snapshot captured at enqueue time.
// It is never refreshed from the catalog while a task is in flight so the
// UI stays stable for the task's lifetime.
type AppInfo struct {
	AppID       string `json:"app_id"`
	Name        string `json:"name,omitempty"`
	ZhName      string `json:"zh_name,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Version     string `json:"version,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Module      string `json:"module,omitempty"`
	Arch        string `json:"arch,omitempty"`
	Description string `json:"description,omitempty"`
}

// DisplayName prefers the localized name, then the plain name, then the id.
func (a AppInfo) DisplayName() string {
	if a.ZhName != "" {
		return a.ZhName
	}
	if a.Name != "" {
		return a.Name
	}
	return a.AppID
}

// Options carries optional enqueue parameters.
type Options struct {
	// Version pins the install to a specific version; empty means latest.
	Version string
	// Force bypasses "already installed" conflicts in the installer.
	Force bool
}

// InstallTask is the unit of work processed by the queue store. Its JSON
// shape is also the durable persisted-task record.
type InstallTask struct {
	ID      string  `json:"id"`
	AppID   string  `json:"app_id"`
	App     AppInfo `json:"app"`
	Version string  `json:"version,omitempty"`
	Force   bool    `json:"force,omitempty"`

	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	ErrorCode    *int   `json:"error_code,omitempty"`
	ErrorDetail  string `json:"error_detail,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// New constructs a pending task for the given package snapshot.
func New(app AppInfo, opts Options) (*InstallTask, error) {
	if strings.TrimSpace(app.AppID) == "" {
		return nil, ErrMissingAppID
	}
	return &InstallTask{
		ID:        uuid.NewString(),
		AppID:     app.AppID,
		App:       app,
		Version:   strings.TrimSpace(opts.Version),
		Force:     opts.Force,
		Status:    StatusPending,
		Progress:  0,
		Message:   "Waiting to install",
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Clone returns a deep copy so read surfaces never alias store-owned state.
func (t *InstallTask) Clone() *InstallTask {
	if t == nil {
		return nil
	}
	cp := *t
	if t.ErrorCode != nil {
		code := *t.ErrorCode
		cp.ErrorCode = &code
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		cp.StartedAt = &started
	}
	if t.FinishedAt != nil {
		finished := *t.FinishedAt
		cp.FinishedAt = &finished
	}
	return &cp
}

// SetProgress updates the mutable progress fields in place.
func (t *InstallTask) SetProgress(percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.Progress = percent
	if message != "" {
		t.Message = message
	}
}

// MarkInstalling promotes the task to the active slot.
func (t *InstallTask) MarkInstalling(now time.Time) {
	t.Status = StatusInstalling
	t.Message = "Preparing install"
	started := now.UTC()
	t.StartedAt = &started
}

// MarkSuccess finalizes the task as completed.
func (t *InstallTask) MarkSuccess(now time.Time, message string) {
	t.Status = StatusSuccess
	t.Progress = 100
	if message == "" {
		message = "Install complete"
	}
	t.Message = message
	finished := now.UTC()
	t.FinishedAt = &finished
}

// MarkFailed finalizes the task as failed with the supplied error payload.
func (t *InstallTask) MarkFailed(now time.Time, errMessage string, code *int, detail string) {
	t.Status = StatusFailed
	t.Message = "Install failed"
	t.ErrorMessage = errMessage
	if code != nil {
		c := *code
		t.ErrorCode = &c
	}
	t.ErrorDetail = detail
	finished := now.UTC()
	t.FinishedAt = &finished
}

// Cancelled reports whether the task failed due to a user-initiated cancel.
func (t *InstallTask) Cancelled() bool {
	return t.Status == StatusFailed && t.ErrorCode != nil && *t.ErrorCode == CodeCancelled
}
