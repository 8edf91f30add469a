// Package installed provides a cleaned-up view of the packages present on
// the machine: one entry per app id, sorted for display.
package installed

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"llstore/internal/llcli"
	"llstore/internal/queue"
	"llstore/internal/version"
)

// Lister is the slice of the installer client this package needs.
type Lister interface {
	ListInstalled(ctx context.Context) ([]llcli.App, error)
}

// Service produces installed-app snapshots.
type Service struct {
	lister      Lister
	collator    *collate.Collator
	includeBase bool
}

// Option customizes service construction.
type Option func(*Service)

// WithBaseServices includes base and runtime packages in snapshots.
func WithBaseServices(include bool) Option {
	return func(s *Service) {
		s.includeBase = include
	}
}

// NewService builds a service sorting names with the given BCP 47 language
// tag. An unparseable tag falls back to simplified Chinese, the store's
// primary locale.
func NewService(lister Lister, langTag string, opts ...Option) *Service {
	tag, err := language.Parse(langTag)
	if err != nil {
		tag = language.SimplifiedChinese
	}
	svc := &Service{lister: lister, collator: collate.New(tag)}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Snapshot returns the installed apps, deduplicated by app id with the
// newest version winning, sorted by display name with locale-aware
// collation. Development modules are excluded, and base/runtime packages
// are excluded unless configured in.
func (s *Service) Snapshot(ctx context.Context) ([]llcli.App, error) {
	apps, err := s.lister.ListInstalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot installed apps: %w", err)
	}

	byID := make(map[string]llcli.App, len(apps))
	for _, app := range apps {
		if app.ID == "" || app.Module == "develop" {
			continue
		}
		if !s.includeBase && (app.Kind == "base" || app.Kind == "runtime") {
			continue
		}
		existing, seen := byID[app.ID]
		if !seen || version.Newer(app.Version, existing.Version) {
			byID[app.ID] = app
		}
	}

	result := make([]llcli.App, 0, len(byID))
	for _, app := range byID {
		result = append(result, app)
	}
	sort.Slice(result, func(i, j int) bool {
		return s.collator.CompareString(displayName(result[i]), displayName(result[j])) < 0
	})
	return result, nil
}

// Refs maps the snapshot into recovery references for the queue store.
func (s *Service) Refs(ctx context.Context) ([]queue.InstalledRef, error) {
	apps, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]queue.InstalledRef, 0, len(apps))
	for _, app := range apps {
		refs = append(refs, queue.InstalledRef{AppID: app.ID, Version: app.Version})
	}
	return refs, nil
}

func displayName(app llcli.App) string {
	if app.Name != "" {
		return app.Name
	}
	return app.ID
}
