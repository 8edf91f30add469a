package task_test

import (
	"testing"
	"time"

	"llstore/internal/task"
)

func TestNewRequiresAppID(t *testing.T) {
	if _, err := task.New(task.AppInfo{Name: "Calculator"}, task.Options{}); err == nil {
		t.Fatal("expected error for missing app id")
	}

	tk, err := task.New(task.AppInfo{AppID: "org.deepin.calculator"}, task.Options{Version: "1.2.0", Force: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tk.ID == "" {
		t.Fatal("expected generated task id")
	}
	if tk.Status != task.StatusPending {
		t.Fatalf("expected pending status, got %s", tk.Status)
	}
	if tk.Progress != 0 {
		t.Fatalf("expected zero progress, got %d", tk.Progress)
	}
	if tk.Version != "1.2.0" || !tk.Force {
		t.Fatalf("options not captured: %#v", tk)
	}
	if tk.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tk, err := task.New(task.AppInfo{AppID: "org.deepin.music"}, task.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	code := task.CodeNetworkError
	tk.MarkFailed(time.Now(), "network error", &code, "")

	cp := tk.Clone()
	*cp.ErrorCode = task.CodeUnknown
	if *tk.ErrorCode != task.CodeNetworkError {
		t.Fatal("clone shares error code pointer")
	}
}

func TestMarkTransitions(t *testing.T) {
	tk, err := task.New(task.AppInfo{AppID: "org.deepin.draw"}, task.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	now := time.Now()
	tk.MarkInstalling(now)
	if tk.Status != task.StatusInstalling || tk.StartedAt == nil {
		t.Fatalf("unexpected installing state: %#v", tk)
	}

	tk.SetProgress(150, "almost done")
	if tk.Progress != 100 {
		t.Fatalf("expected progress clamped to 100, got %d", tk.Progress)
	}

	tk.MarkSuccess(now, "")
	if tk.Status != task.StatusSuccess || tk.Progress != 100 || tk.FinishedAt == nil {
		t.Fatalf("unexpected success state: %#v", tk)
	}
	if !tk.Status.IsTerminal() {
		t.Fatal("success should be terminal")
	}
}

func TestCancelledClassification(t *testing.T) {
	tk, err := task.New(task.AppInfo{AppID: "org.deepin.editor"}, task.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	code := task.CodeCancelled
	tk.MarkFailed(time.Now(), "cancelled by user", &code, "")
	if !tk.Cancelled() {
		t.Fatal("expected cancelled task")
	}
	if !task.IsCancelledCode(tk.ErrorCode) {
		t.Fatal("expected cancelled code")
	}
}
