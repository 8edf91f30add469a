package llcli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"llstore/internal/events"
	"llstore/internal/task"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(events.NewBus(), WithBinary("/opt/ll-cli"))
	if cli.binary != "/opt/ll-cli" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestInstallRequiresAppID(t *testing.T) {
	cli := NewCLI(events.NewBus())
	if err := cli.Install(context.Background(), "  ", "", false); err == nil {
		t.Fatal("expected error when app id is empty")
	}
}

func TestCancelWithoutRunningInstall(t *testing.T) {
	cli := NewCLI(events.NewBus())
	if err := cli.Cancel("org.deepin.calculator"); err == nil {
		t.Fatal("expected error when no install is running")
	}
}

func TestInstallBuildsVersionedRef(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "LLCLI_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	cli := NewCLI(bus)
	if err := cli.Install(context.Background(), "org.deepin.editor", "2.1.0", true); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	collectUntilTerminal(t, ch)

	want := []string{"install", "org.deepin.editor/2.1.0", "--force"}
	if len(capturedArgs) != len(want) {
		t.Fatalf("captured args %v, want %v", capturedArgs, want)
	}
	for i := range want {
		if capturedArgs[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, capturedArgs[i], want[i])
		}
	}
}

func TestInstallPublishesProgressAndCompletion(t *testing.T) {
	setHelperCommand(t, "success")

	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	cli := NewCLI(bus)
	if err := cli.Install(context.Background(), "org.deepin.calculator", "", false); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	got := collectUntilTerminal(t, ch)
	var progress []int
	for _, evt := range got {
		if evt.AppID != "org.deepin.calculator" {
			t.Fatalf("event for wrong app: %q", evt.AppID)
		}
		if evt.Kind == events.KindProgress {
			progress = append(progress, evt.Percent)
		}
	}
	if len(progress) < 3 {
		t.Fatalf("expected at least 3 progress events, got %v", progress)
	}
	if progress[len(progress)-1] != 100 {
		t.Fatalf("expected final progress 100, got %v", progress)
	}
}

func TestInstallFailureClassifiesOutput(t *testing.T) {
	setHelperCommand(t, "network-failure")

	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	cli := NewCLI(bus)
	if err := cli.Install(context.Background(), "org.deepin.music", "", false); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	got := collectUntilTerminal(t, ch)
	final := got[len(got)-1]
	if final.Kind != events.KindError {
		t.Fatalf("expected error event, got %s", final.Kind)
	}
	if final.Code == nil || *final.Code != task.CodeNetworkError {
		t.Fatalf("expected network error code, got %v", final.Code)
	}
	if final.Detail == "" {
		t.Fatal("expected failure detail from output tail")
	}
}

func TestCancelKillsRunningInstall(t *testing.T) {
	setHelperCommand(t, "hang")

	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	cli := NewCLI(bus)
	if err := cli.Install(context.Background(), "org.deepin.draw", "", false); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if err := cli.Cancel("org.deepin.draw"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	got := collectUntilTerminal(t, ch)
	final := got[len(got)-1]
	if final.Kind != events.KindError {
		t.Fatalf("expected error event after cancel, got %s", final.Kind)
	}
	if final.Code == nil || *final.Code != task.CodeCancelled {
		t.Fatalf("expected cancelled code, got %v", final.Code)
	}
}

func TestInstallRejectsSecondInstallForSameApp(t *testing.T) {
	setHelperCommand(t, "hang")

	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	cli := NewCLI(bus)
	if err := cli.Install(context.Background(), "org.deepin.reader", "", false); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if err := cli.Install(context.Background(), "org.deepin.reader", "", false); err == nil {
		t.Fatal("expected error for second install of the same app")
	}

	if err := cli.Cancel("org.deepin.reader"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	collectUntilTerminal(t, ch)
}

func TestInstallStartFailureReleasesSlot(t *testing.T) {
	cli := NewCLI(events.NewBus(), WithBinary(filepath.Join(t.TempDir(), "missing-ll-cli")))

	if err := cli.Install(context.Background(), "org.deepin.camera", "", false); err == nil {
		t.Fatal("expected start error for missing binary")
	}

	// The failed start must release the app slot rather than leave it
	// reported as a running install.
	err := cli.Install(context.Background(), "org.deepin.camera", "", false)
	if err == nil {
		t.Fatal("expected repeated start error")
	}
	if strings.Contains(err.Error(), "already running") {
		t.Fatalf("slot still held after failed start: %v", err)
	}
}

func TestListInstalledParsesJSON(t *testing.T) {
	setHelperCommand(t, "list")

	cli := NewCLI(events.NewBus())
	apps, err := cli.ListInstalled(context.Background())
	if err != nil {
		t.Fatalf("ListInstalled returned error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 apps, got %d", len(apps))
	}
	if apps[0].ID != "org.deepin.calculator" || apps[0].Version != "5.7.1" {
		t.Fatalf("unexpected first app: %+v", apps[0])
	}
	if apps[1].Channel != "main" {
		t.Fatalf("unexpected second app channel: %q", apps[1].Channel)
	}
}

func collectUntilTerminal(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var got []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case evt := <-ch:
			got = append(got, evt)
			if evt.Kind == events.KindError {
				return got
			}
			if evt.Kind == events.KindProgress && evt.Percent >= 100 {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for terminal event, got %d events", len(got))
		}
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("LLCLI_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("LLCLI_HELPER_MODE") {
	case "success":
		fmt.Println("Beginning install")
		fmt.Println("Downloading 30%")
		fmt.Println("Downloading 75%")
		fmt.Println("Installing 100%")
		os.Exit(0)
	case "network-failure":
		fmt.Println("Downloading 10%")
		fmt.Fprintln(os.Stderr, "Fetch failed: network unreachable")
		os.Exit(1)
	case "hang":
		fmt.Println("Downloading 5%")
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "list":
		fmt.Println(`[{"id":"org.deepin.calculator","name":"Calculator","version":"5.7.1","arch":"x86_64","channel":"main","module":"binary"},{"id":"org.deepin.music","name":"Music","version":"7.0.2","arch":"x86_64","channel":"main","module":"binary"}]`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
