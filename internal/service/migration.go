package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/stitch-flow/internal/domain"
)

// MigrationService moves the onboarding state of the legacy store into the
// structured profile record. It is safe to run on every start.
type MigrationService struct {
	legacy   domain.LegacyStore
	profiles domain.ProfileRepository
	logger   *slog.Logger
}

// NewMigrationService creates a new MigrationService.
func NewMigrationService(legacy domain.LegacyStore, profiles domain.ProfileRepository, logger *slog.Logger) *MigrationService {
	return &MigrationService{legacy: legacy, profiles: profiles, logger: loggerOrDefault(logger)}
}

// MigrateIfNeeded writes a profile built from legacy fields when the legacy
// store says onboarding finished and no structured profile exists yet. It
// reports whether a profile was written. An existing profile is never
// overwritten, which makes repeated runs no-ops.
func (s *MigrationService) MigrateIfNeeded(ctx context.Context) (bool, error) {
	completed, err := s.legacy.HasCompletedOnboarding(ctx)
	if err != nil {
		return false, fmt.Errorf("read legacy onboarding flag: %w", err)
	}
	if !completed {
		s.logger.Debug("legacy migration skipped", "reason", "onboarding not completed in legacy store")
		return false, nil
	}

	existing, err := s.profiles.Get(ctx)
	switch {
	case err == nil:
		s.logger.Debug("legacy migration skipped", "reason", "profile exists", "profile_id", existing.ID)
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("check structured profile: %w", err)
	}

	fields, err := s.legacy.ReadOnboardingFields(ctx)
	if err != nil {
		return false, fmt.Errorf("read legacy onboarding fields: %w", err)
	}
	profile := fields
	profile.ID = ""
	profile.HasCompletedOnboarding = true
	profile.Struggles = domain.NormalizeStruggles(fields.Struggles)

	if err := s.profiles.Upsert(ctx, &profile); err != nil {
		return false, fmt.Errorf("%w: write profile: %w", domain.ErrMigrationFailed, err)
	}
	s.logger.Info("legacy profile migrated", "profile_id", profile.ID, "craft_type", profile.CraftType)
	return true, nil
}
