package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"llstore/internal/preflight"
	"llstore/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckDirectoryAccess("State directory", dir); !result.Passed {
		t.Fatalf("expected writable temp dir to pass: %+v", result)
	}
	missing := filepath.Join(dir, "nope")
	if result := preflight.CheckDirectoryAccess("State directory", missing); result.Passed {
		t.Fatalf("expected missing dir to fail: %+v", result)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	if result := preflight.CheckDiskSpace(t.TempDir(), 0); !result.Passed {
		t.Fatalf("expected zero minimum to pass: %+v", result)
	}
	// No filesystem has this much free space.
	if result := preflight.CheckDiskSpace(t.TempDir(), 1<<20); result.Passed {
		t.Fatalf("expected absurd minimum to fail: %+v", result)
	}
}

func TestCheckCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // any non-5xx proves reachability
	}))
	defer server.Close()

	if result := preflight.CheckCatalog(context.Background(), server.URL); !result.Passed {
		t.Fatalf("expected reachable catalog to pass: %+v", result)
	}
	if result := preflight.CheckCatalog(context.Background(), ""); result.Passed {
		t.Fatal("expected empty url to fail")
	}
	if result := preflight.CheckCatalog(context.Background(), "http://127.0.0.1:1"); result.Passed {
		t.Fatal("expected unreachable catalog to fail")
	}
}

func TestRunAllCoversConfiguredPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	names := map[string]bool{}
	for _, result := range results {
		names[result.Name] = true
	}
	for _, want := range []string{"State directory", "Log directory", "Disk space", "Catalog"} {
		if !names[want] {
			t.Errorf("missing check %q in results", want)
		}
	}
}

func TestCheckSystemDepsListsInstaller(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInstallerBinary("sh"))
	statuses := preflight.CheckSystemDeps(cfg)
	if len(statuses) == 0 {
		t.Fatal("expected at least one requirement")
	}
	if statuses[0].Name != "ll-cli" || !statuses[0].Available {
		t.Fatalf("expected installer requirement satisfied by sh, got %+v", statuses[0])
	}
}

func TestAllPassed(t *testing.T) {
	pass := []preflight.Result{{Passed: true}, {Passed: true}}
	if !preflight.AllPassed(pass) {
		t.Fatal("expected all-passed slice to report true")
	}
	if preflight.AllPassed(append(pass, preflight.Result{})) {
		t.Fatal("expected failing result to report false")
	}
}
