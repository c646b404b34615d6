// Package app wires the stores and services of stitch-flow together. It is
// the only place that knows about every component; everything else receives
// its collaborators through constructors.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/msomdec/stitch-flow/internal/config"
	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/msomdec/stitch-flow/internal/repository/legacy"
	"github.com/msomdec/stitch-flow/internal/repository/sqlite"
	"github.com/msomdec/stitch-flow/internal/service"
)

// Stores are the durable collaborators the app runs on.
type Stores struct {
	Profiles domain.ProfileRepository
	Projects domain.ProjectRepository
	Sessions domain.WorkSessionRepository
	Legacy   domain.LegacyStore
}

// App is one running instance. Its services are created once and shared by
// reference with whatever presents them.
type App struct {
	Profiles   *service.ProfileService
	Projects   *service.ProjectService
	Sessions   *service.WorkSessionService
	Navigation *service.NavigationService
	Migration  *service.MigrationService

	logger *slog.Logger
}

// New builds an App over st. Nothing is read until Boot.
func New(st Stores, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if st.Legacy == nil {
		st.Legacy = legacy.Empty{}
	}

	profiles := service.NewProfileService(st.Profiles, logger.With("component", "profiles"))
	projects := service.NewProjectService(st.Projects, logger.With("component", "projects"))
	return &App{
		Profiles:   profiles,
		Projects:   projects,
		Sessions:   service.NewWorkSessionService(st.Sessions, projects, logger.With("component", "sessions")),
		Navigation: service.NewNavigationService(profiles, logger.With("component", "navigation")),
		Migration:  service.NewMigrationService(st.Legacy, st.Profiles, logger.With("component", "migration")),
		logger:     logger,
	}
}

// Boot runs the legacy migration, loads the profile and projects, and
// starts navigation. A failed migration is logged and does not stop boot.
// Navigation always starts, on splash if the profile could not be loaded;
// the load error is still returned so it can be shown.
func (a *App) Boot(ctx context.Context) error {
	if migrated, err := a.Migration.MigrateIfNeeded(ctx); err != nil {
		a.logger.Error("legacy migration failed", "error", err)
	} else if migrated {
		a.logger.Info("legacy profile imported")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := a.Profiles.Load(gctx); err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.Projects.Load(gctx); err != nil {
			return fmt.Errorf("load projects: %w", err)
		}
		return nil
	})
	loadErr := g.Wait()
	if loadErr != nil {
		a.logger.Error("boot load failed", "error", loadErr)
	}

	screen := a.Navigation.Start(a.Profiles.Current())
	a.logger.Info("app booted", "screen", screen, "projects", len(a.Projects.List()))
	return loadErr
}

// State is a point-in-time view of everything the presentation shows.
type State struct {
	Screen          domain.Screen
	Profile         *domain.UserProfile
	Projects        []domain.Project
	ActiveProjectID string
}

// State returns the current screen, profile and projects.
func (a *App) State() State {
	snap := a.Projects.Snapshot()
	return State{
		Screen:          a.Navigation.Current(),
		Profile:         a.Profiles.Current(),
		Projects:        snap.Projects,
		ActiveProjectID: snap.ActiveID,
	}
}

// Open opens the stores named by cfg, applies schema migrations and returns
// an App ready to Boot. The returned close function releases both stores.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("database migrations applied", "path", cfg.DatabasePath)

	legacyStore, closeLegacy, err := legacy.Open(legacy.Config{
		Path:   cfg.LegacyStorePath,
		Logger: logger.With("component", "badger"),
	})
	if err != nil {
		// The legacy store only feeds the one-time import; the app runs
		// without it.
		logger.Warn("legacy store unavailable", "path", cfg.LegacyStorePath, "error", err)
		legacyStore, closeLegacy = legacy.Empty{}, func() error { return nil }
	}

	a := New(Stores{
		Profiles: db.Profiles(),
		Projects: db.Projects(),
		Sessions: db.Sessions(),
		Legacy:   legacyStore,
	}, logger)

	closeAll := func() error {
		return errors.Join(closeLegacy(), db.Close())
	}
	return a, closeAll, nil
}
