// Package updates joins the installed-app snapshot against the catalog to
// find packages with a newer published version.
package updates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"llstore/internal/catalog"
	"llstore/internal/llcli"
	"llstore/internal/logging"
	"llstore/internal/task"
	"llstore/internal/version"
)

// Update describes one available upgrade.
type Update struct {
	AppID     string
	Name      string
	Installed string
	Available string
}

// Catalog is the metadata lookup this package needs.
type Catalog interface {
	AppInfo(ctx context.Context, appID string) (*task.AppInfo, error)
}

// Snapshotter supplies the installed apps to compare.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]llcli.App, error)
}

// Service computes available updates.
type Service struct {
	installed Snapshotter
	catalog   Catalog
	logger    *slog.Logger
}

// NewService wires the update check.
func NewService(installed Snapshotter, cat Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{installed: installed, catalog: cat, logger: logger}
}

// Check returns the installed apps whose catalog version is newer. Apps the
// catalog does not know about are skipped, not errors: locally sideloaded
// packages are expected.
func (s *Service) Check(ctx context.Context) ([]Update, error) {
	apps, err := s.installed.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("check updates: %w", err)
	}

	var updates []Update
	for _, app := range apps {
		info, err := s.catalog.AppInfo(ctx, app.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				s.logger.Debug("app missing from catalog", logging.String("app_id", app.ID))
				continue
			}
			return nil, fmt.Errorf("check updates for %s: %w", app.ID, err)
		}
		if version.Newer(info.Version, app.Version) {
			updates = append(updates, Update{
				AppID:     app.ID,
				Name:      displayName(app, info),
				Installed: app.Version,
				Available: info.Version,
			})
		}
	}
	return updates, nil
}

func displayName(app llcli.App, info *task.AppInfo) string {
	if name := info.DisplayName(); name != info.AppID {
		return name
	}
	if app.Name != "" {
		return app.Name
	}
	return app.ID
}
