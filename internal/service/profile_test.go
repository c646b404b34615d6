package service

import (
	"context"
	"testing"

	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfileService(t *testing.T) (*ProfileService, *memProfiles) {
	t.Helper()
	repo := &memProfiles{}
	svc := NewProfileService(repo, nil)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	return svc, repo
}

func TestProfileService_LoadFreshInstall(t *testing.T) {
	svc, _ := newTestProfileService(t)
	assert.Nil(t, svc.Current())
}

func TestProfileService_SaveOnboardingAnswerCreatesProfile(t *testing.T) {
	svc, repo := newTestProfileService(t)
	ctx := context.Background()

	p, err := svc.SaveOnboardingAnswer(ctx, domain.FieldCraft, "knitting")
	require.NoError(t, err)
	assert.Equal(t, "knitting", p.CraftType)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.HasCompletedOnboarding)

	_, err = svc.SaveOnboardingAnswer(ctx, domain.FieldSkill, " intermediate ")
	require.NoError(t, err)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "knitting", stored.CraftType)
	assert.Equal(t, "intermediate", stored.SkillLevel)
	assert.Equal(t, p.ID, stored.ID)
}

func TestProfileService_Struggles(t *testing.T) {
	svc, _ := newTestProfileService(t)
	ctx := context.Background()

	p, err := svc.SaveOnboardingAnswer(ctx, domain.FieldStruggles, "tension, counting")
	require.NoError(t, err)
	assert.Equal(t, []string{"counting", "tension"}, p.Struggles)

	p, err = svc.SaveOnboardingAnswer(ctx, domain.FieldStruggle, "motivation")
	require.NoError(t, err)
	assert.Equal(t, []string{"counting", "motivation", "tension"}, p.Struggles)

	p, err = svc.SaveOnboardingAnswer(ctx, domain.FieldStruggle, "counting")
	require.NoError(t, err)
	assert.Equal(t, []string{"motivation", "tension"}, p.Struggles)
}

func TestProfileService_UnknownField(t *testing.T) {
	svc, repo := newTestProfileService(t)

	_, err := svc.SaveOnboardingAnswer(context.Background(), "favouriteColour", "green")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, repo.upserts)
	assert.Nil(t, svc.Current())
}

func TestProfileService_FailedWriteKeepsCache(t *testing.T) {
	svc, repo := newTestProfileService(t)
	ctx := context.Background()

	_, err := svc.SaveOnboardingAnswer(ctx, domain.FieldGoal, "a sweater")
	require.NoError(t, err)

	repo.failUpsert = errDiskFull
	_, err = svc.SaveOnboardingAnswer(ctx, domain.FieldGoal, "a blanket")
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, "a sweater", svc.Current().Goal)
}

func TestProfileService_WriteAfterFailedLoadKeepsStoredFields(t *testing.T) {
	ctx := context.Background()
	repo := &memProfiles{profile: &domain.UserProfile{
		ID:                     "profile-1",
		Name:                   "Ada",
		CraftType:              "crochet",
		IsPro:                  true,
		HasCompletedOnboarding: true,
	}}
	svc := NewProfileService(repo, nil)

	repo.failGet = errDiskFull
	_, err := svc.Load(ctx)
	require.ErrorIs(t, err, errDiskFull)

	_, err = svc.SaveOnboardingAnswer(ctx, domain.FieldGoal, "finish")
	require.ErrorIs(t, err, errDiskFull, "no write while the stored profile is unreadable")
	assert.Zero(t, repo.upserts)

	repo.failGet = nil
	p, err := svc.SaveOnboardingAnswer(ctx, domain.FieldGoal, "finish")
	require.NoError(t, err)
	assert.Equal(t, "finish", p.Goal)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.Name)
	assert.Equal(t, "crochet", stored.CraftType)
	assert.True(t, stored.IsPro)
	assert.True(t, stored.HasCompletedOnboarding)
	assert.Equal(t, "finish", stored.Goal)
	assert.Equal(t, "profile-1", stored.ID)
}

func TestProfileService_UpsertIsFullReplace(t *testing.T) {
	svc, _ := newTestProfileService(t)
	ctx := context.Background()

	_, err := svc.SaveOnboardingAnswer(ctx, domain.FieldCraft, "crochet")
	require.NoError(t, err)

	p, err := svc.Upsert(ctx, domain.UserProfile{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Empty(t, p.CraftType)
}

func TestProfileService_CurrentIsACopy(t *testing.T) {
	svc, _ := newTestProfileService(t)
	ctx := context.Background()

	_, err := svc.SaveOnboardingAnswer(ctx, domain.FieldStruggles, "tension")
	require.NoError(t, err)

	p := svc.Current()
	p.CraftType = "weaving"
	p.Struggles[0] = "changed"

	assert.Empty(t, svc.Current().CraftType)
	assert.Equal(t, []string{"tension"}, svc.Current().Struggles)
}

func TestProfileService_SetOnboardingCompleted(t *testing.T) {
	t.Run("creates a record when none exists", func(t *testing.T) {
		svc, repo := newTestProfileService(t)
		require.NoError(t, svc.SetOnboardingCompleted(context.Background(), true))
		assert.True(t, repo.profile.HasCompletedOnboarding)
		assert.True(t, svc.Current().HasCompletedOnboarding)
	})

	t.Run("clearing on a fresh install is a no-op", func(t *testing.T) {
		svc, repo := newTestProfileService(t)
		require.NoError(t, svc.SetOnboardingCompleted(context.Background(), false))
		assert.Nil(t, repo.profile)
	})

	t.Run("updates an existing record", func(t *testing.T) {
		svc, repo := newTestProfileService(t)
		ctx := context.Background()
		_, err := svc.SaveOnboardingAnswer(ctx, domain.FieldCraft, "knitting")
		require.NoError(t, err)

		require.NoError(t, svc.SetOnboardingCompleted(ctx, true))
		assert.True(t, repo.profile.HasCompletedOnboarding)
		assert.Equal(t, "knitting", svc.Current().CraftType)
	})
}

func TestProfileService_ResetOnboarding(t *testing.T) {
	svc, repo := newTestProfileService(t)
	ctx := context.Background()

	for field, value := range map[domain.OnboardingField]string{
		domain.FieldName:      "Ada",
		domain.FieldCraft:     "knitting",
		domain.FieldSkill:     "beginner",
		domain.FieldHabit:     "daily",
		domain.FieldGoal:      "a hat",
		domain.FieldStruggles: "tension",
	} {
		_, err := svc.SaveOnboardingAnswer(ctx, field, value)
		require.NoError(t, err)
	}
	_, err := svc.SetPro(ctx, true)
	require.NoError(t, err)
	require.NoError(t, svc.SetOnboardingCompleted(ctx, true))
	id := svc.Current().ID

	require.NoError(t, svc.ResetOnboarding(ctx))

	p := svc.Current()
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Ada", p.Name)
	assert.True(t, p.IsPro)
	assert.Empty(t, p.CraftType)
	assert.Empty(t, p.SkillLevel)
	assert.Empty(t, p.HabitFrequency)
	assert.Empty(t, p.Goal)
	assert.Empty(t, p.Struggles)
	assert.False(t, p.HasCompletedOnboarding)
	assert.False(t, repo.profile.HasCompletedOnboarding)
}

func TestProfileService_Subscribe(t *testing.T) {
	svc, _ := newTestProfileService(t)
	ctx := context.Background()

	var crafts []string
	unsubscribe := svc.Subscribe(func(p *domain.UserProfile) { crafts = append(crafts, p.CraftType) })
	defer unsubscribe()

	_, err := svc.SaveOnboardingAnswer(ctx, domain.FieldCraft, "knitting")
	require.NoError(t, err)
	_, err = svc.SaveOnboardingAnswer(ctx, domain.FieldCraft, "crochet")
	require.NoError(t, err)

	assert.Equal(t, []string{"knitting", "crochet"}, crafts)
}
