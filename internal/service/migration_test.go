package service

import (
	"context"
	"testing"

	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationService_MigratesOnboardedLegacyUser(t *testing.T) {
	legacy := &memLegacy{fields: domain.UserProfile{
		HasCompletedOnboarding: true,
		CraftType:              "crochet",
		SkillLevel:             "advanced",
		Struggles:              []string{"tension", "counting"},
	}}
	profiles := &memProfiles{}
	svc := NewMigrationService(legacy, profiles, nil)

	migrated, err := svc.MigrateIfNeeded(context.Background())
	require.NoError(t, err)
	assert.True(t, migrated)

	require.NotNil(t, profiles.profile)
	assert.Equal(t, "crochet", profiles.profile.CraftType)
	assert.Equal(t, "advanced", profiles.profile.SkillLevel)
	assert.Equal(t, []string{"counting", "tension"}, profiles.profile.Struggles)
	assert.True(t, profiles.profile.HasCompletedOnboarding)
	assert.False(t, profiles.profile.IsPro)
	assert.Empty(t, profiles.profile.Goal)
}

func TestMigrationService_Idempotent(t *testing.T) {
	legacy := &memLegacy{fields: domain.UserProfile{HasCompletedOnboarding: true, CraftType: "knitting"}}
	profiles := &memProfiles{}
	svc := NewMigrationService(legacy, profiles, nil)
	ctx := context.Background()

	migrated, err := svc.MigrateIfNeeded(ctx)
	require.NoError(t, err)
	require.True(t, migrated)
	first := profiles.profile.Clone()

	migrated, err = svc.MigrateIfNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, migrated)

	assert.Equal(t, 1, profiles.upserts)
	assert.Equal(t, first, profiles.profile)
}

func TestMigrationService_NeverOverwritesExistingProfile(t *testing.T) {
	legacy := &memLegacy{fields: domain.UserProfile{HasCompletedOnboarding: true, CraftType: "crochet"}}
	profiles := &memProfiles{profile: &domain.UserProfile{ID: "p", CraftType: "knitting"}}
	svc := NewMigrationService(legacy, profiles, nil)

	migrated, err := svc.MigrateIfNeeded(context.Background())
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, "knitting", profiles.profile.CraftType)
	assert.False(t, profiles.profile.HasCompletedOnboarding)
	assert.Zero(t, profiles.upserts)
}

func TestMigrationService_SkipsWhenLegacyNotOnboarded(t *testing.T) {
	legacy := &memLegacy{fields: domain.UserProfile{CraftType: "crochet"}}
	profiles := &memProfiles{}
	svc := NewMigrationService(legacy, profiles, nil)

	migrated, err := svc.MigrateIfNeeded(context.Background())
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Nil(t, profiles.profile)
}

func TestMigrationService_WriteFailure(t *testing.T) {
	legacy := &memLegacy{fields: domain.UserProfile{HasCompletedOnboarding: true, CraftType: "crochet"}}
	profiles := &memProfiles{failUpsert: errDiskFull}
	svc := NewMigrationService(legacy, profiles, nil)
	ctx := context.Background()

	migrated, err := svc.MigrateIfNeeded(ctx)
	require.ErrorIs(t, err, domain.ErrMigrationFailed)
	require.ErrorIs(t, err, errDiskFull)
	assert.False(t, migrated)
	assert.Nil(t, profiles.profile)

	// The next start retries and succeeds.
	profiles.failUpsert = nil
	migrated, err = svc.MigrateIfNeeded(ctx)
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, "crochet", profiles.profile.CraftType)
}

func TestMigrationService_LegacyReadFailure(t *testing.T) {
	legacy := &memLegacy{fail: domain.ErrStorageUnavailable}
	profiles := &memProfiles{}
	svc := NewMigrationService(legacy, profiles, nil)

	_, err := svc.MigrateIfNeeded(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, domain.ErrMigrationFailed)
	assert.Nil(t, profiles.profile)
}
