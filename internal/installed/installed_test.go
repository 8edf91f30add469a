package installed_test

import (
	"context"
	"errors"
	"testing"

	"llstore/internal/installed"
	"llstore/internal/llcli"
)

type fakeLister struct {
	apps []llcli.App
	err  error
}

func (f *fakeLister) ListInstalled(context.Context) ([]llcli.App, error) {
	return f.apps, f.err
}

func TestSnapshotDeduplicatesAndSorts(t *testing.T) {
	lister := &fakeLister{apps: []llcli.App{
		{ID: "org.deepin.music", Name: "Music", Version: "7.0.1", Module: "binary"},
		{ID: "org.deepin.calculator", Name: "Calculator", Version: "5.7.1", Module: "binary"},
		{ID: "org.deepin.music", Name: "Music", Version: "7.2.0", Module: "binary"},
		{ID: "org.deepin.editor", Name: "Editor", Version: "1.0.0", Module: "develop"},
		{ID: "", Name: "ghost"},
	}}

	svc := installed.NewService(lister, "en")
	apps, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 apps, got %d: %+v", len(apps), apps)
	}
	if apps[0].Name != "Calculator" || apps[1].Name != "Music" {
		t.Fatalf("expected sorted order Calculator, Music; got %s, %s", apps[0].Name, apps[1].Name)
	}
	if apps[1].Version != "7.2.0" {
		t.Fatalf("expected newest version kept, got %s", apps[1].Version)
	}
}

func TestSnapshotFiltersBaseServices(t *testing.T) {
	lister := &fakeLister{apps: []llcli.App{
		{ID: "org.deepin.base", Name: "Base", Version: "25.0.0", Kind: "base"},
		{ID: "org.deepin.Runtime", Name: "Runtime", Version: "25.0.0", Kind: "runtime"},
		{ID: "org.deepin.mail", Name: "Mail", Version: "6.0.0", Kind: "app"},
	}}

	svc := installed.NewService(lister, "en")
	apps, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != "org.deepin.mail" {
		t.Fatalf("expected base/runtime filtered, got %+v", apps)
	}

	svc = installed.NewService(lister, "en", installed.WithBaseServices(true))
	apps, err = svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot with base services: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("expected all packages included, got %+v", apps)
	}
}

func TestSnapshotPropagatesListerError(t *testing.T) {
	svc := installed.NewService(&fakeLister{err: errors.New("boom")}, "zh-CN")
	if _, err := svc.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error from lister")
	}
}

func TestRefsMapsSnapshot(t *testing.T) {
	lister := &fakeLister{apps: []llcli.App{
		{ID: "org.deepin.draw", Name: "Draw", Version: "6.0.0", Module: "binary"},
	}}
	svc := installed.NewService(lister, "zh-CN")
	refs, err := svc.Refs(context.Background())
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	if len(refs) != 1 || refs[0].AppID != "org.deepin.draw" || refs[0].Version != "6.0.0" {
		t.Fatalf("unexpected refs %+v", refs)
	}
}

func TestNewServiceFallsBackOnBadLanguageTag(t *testing.T) {
	svc := installed.NewService(&fakeLister{}, "not a tag !!")
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot with fallback collator: %v", err)
	}
}
