package bridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"llstore/internal/bridge"
	"llstore/internal/events"
	"llstore/internal/task"
)

type recordedCall struct {
	Method  string
	AppID   string
	Percent int
	Message string
	Code    *int
}

type fakeQueue struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeQueue) UpdateProgress(appID string, percent int, message string) {
	f.record(recordedCall{Method: "progress", AppID: appID, Percent: percent, Message: message})
}

func (f *fakeQueue) UpdateMessage(appID, message string) {
	f.record(recordedCall{Method: "message", AppID: appID, Message: message})
}

func (f *fakeQueue) MarkSuccess(appID string) {
	f.record(recordedCall{Method: "success", AppID: appID})
}

func (f *fakeQueue) MarkFailed(appID, errMessage string, code *int, detail string) {
	f.record(recordedCall{Method: "failed", AppID: appID, Message: errMessage, Code: code})
}

func (f *fakeQueue) record(call recordedCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeQueue) snapshot() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func startBridge(t *testing.T, bus *events.Bus, store *fakeQueue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.New(bus, store, nil, 16).Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the bridge a moment to subscribe before tests publish.
	time.Sleep(10 * time.Millisecond)
}

func waitForCalls(t *testing.T, store *fakeQueue, want int) []recordedCall {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := store.snapshot(); len(calls) >= want {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d calls, have %d", want, len(store.snapshot()))
	return nil
}

func TestProgressEventsReachTheStore(t *testing.T) {
	bus := events.NewBus()
	store := &fakeQueue{}
	startBridge(t, bus, store)

	bus.Publish(events.Event{AppID: "app.a", Kind: events.KindProgress, Percent: 40, Status: "Downloading 40%"})
	bus.Publish(events.Event{AppID: "app.a", Kind: events.KindMessage, Status: "Verifying signature"})

	calls := waitForCalls(t, store, 2)
	if calls[0].Method != "progress" || calls[0].Percent != 40 {
		t.Fatalf("unexpected first call %+v", calls[0])
	}
	if calls[1].Method != "message" || calls[1].Message != "Verifying signature" {
		t.Fatalf("unexpected second call %+v", calls[1])
	}
}

func TestFullProgressTriggersCompletion(t *testing.T) {
	bus := events.NewBus()
	store := &fakeQueue{}
	startBridge(t, bus, store)

	bus.Publish(events.Event{AppID: "app.a", Kind: events.KindProgress, Percent: 100, Status: "Install complete"})

	calls := waitForCalls(t, store, 2)
	if calls[0].Method != "progress" || calls[0].Percent != 100 {
		t.Fatalf("expected progress call first, got %+v", calls[0])
	}
	if calls[1].Method != "success" || calls[1].AppID != "app.a" {
		t.Fatalf("expected success call, got %+v", calls[1])
	}
}

func TestErrorEventsMarkTaskFailed(t *testing.T) {
	bus := events.NewBus()
	store := &fakeQueue{}
	startBridge(t, bus, store)

	code := task.CodeNetworkError
	bus.Publish(events.Event{AppID: "app.a", Kind: events.KindError, Code: &code, Status: "fetch failed", Detail: "curl: (6)"})

	calls := waitForCalls(t, store, 1)
	if calls[0].Method != "failed" {
		t.Fatalf("expected failed call, got %+v", calls[0])
	}
	if calls[0].Code == nil || *calls[0].Code != task.CodeNetworkError {
		t.Fatalf("error code not forwarded: %+v", calls[0])
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	bus := events.NewBus()
	store := &fakeQueue{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.New(bus, store, nil, 16).Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop after context cancel")
	}
}
