package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"llstore/internal/daemon"
	"llstore/internal/logging"
	"llstore/internal/task"
	"llstore/internal/testsupport"
)

// fakeInstaller writes a stand-in ll-cli whose installs block, so the
// first task holds the active slot for the whole test.
func fakeInstaller(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ll-cli")
	script := "#!/bin/sh\ncase \"$1\" in\nlist) echo '[]' ;;\ninstall) sleep 30 ;;\nesac\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake installer: %v", err)
	}
	return path
}

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithInstallerBinary(fakeInstaller(t)))
	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func waitFor(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestDaemonStartAndStatus(t *testing.T) {
	d := newTestDaemon(t)

	status := d.Status()
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("second Start should be a no-op, got %v", err)
	}

	status = d.Status()
	if !status.Running {
		t.Fatal("expected running after Start")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid %d", status.PID)
	}
	if status.StateDBPath == "" || status.LockPath == "" {
		t.Fatalf("expected populated paths, got %+v", status)
	}
}

func TestDaemonEnqueueAndCancel(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx := context.Background()

	id, created, err := d.Enqueue(ctx, daemon.EnqueueEntry{AppID: "org.deepin.calculator"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !created || id == "" {
		t.Fatalf("expected new task, got id=%q created=%v", id, created)
	}

	waitFor(t, 2*time.Second, func() bool {
		snap := d.QueueSnapshot()
		return snap.Current != nil && snap.Current.Status == task.StatusInstalling
	})

	ids := d.EnqueueBatch(ctx, []daemon.EnqueueEntry{
		{AppID: "org.deepin.music"},
		{AppID: "org.deepin.calculator"},
	})
	if len(ids) != 1 {
		t.Fatalf("expected one new batch task, got %v", ids)
	}

	msg, err := d.CancelInstall("org.deepin.music")
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if msg != "removed from queue" {
		t.Fatalf("unexpected cancel message %q", msg)
	}

	msg, err = d.CancelInstall("org.deepin.calculator")
	if err != nil {
		t.Fatalf("cancel running: %v", err)
	}
	if msg != "cancelling running install" {
		t.Fatalf("unexpected cancel message %q", msg)
	}

	if _, err := d.CancelInstall("org.never.queued"); err == nil {
		t.Fatal("expected error cancelling unknown app")
	}

	waitFor(t, 5*time.Second, func() bool {
		st := d.AppStatus("org.deepin.calculator")
		return st != nil && st.Status == task.StatusFailed && st.Cancelled()
	})
}

func TestDaemonSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInstallerBinary(fakeInstaller(t)))

	first, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(first.Close)

	if _, err := daemon.New(cfg, logging.NewNop()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestDaemonStopSignalsShutdown(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	d.Stop()
	select {
	case <-d.ShutdownRequested():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown channel not closed after Stop")
	}

	if d.Status().Running {
		t.Fatal("daemon still reports running after Stop")
	}
}
