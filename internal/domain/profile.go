package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// UserProfile is the single user record of an installation. Empty strings
// mean "not answered yet".
type UserProfile struct {
	ID                     string
	Name                   string
	Email                  string
	CraftType              string
	SkillLevel             string
	HabitFrequency         string
	Goal                   string
	Struggles              []string
	IsPro                  bool
	HasCompletedOnboarding bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Clone returns a deep copy so callers can mutate it without touching
// shared state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Struggles = slices.Clone(p.Struggles)
	return &c
}

// ResetOnboarding clears every onboarding answer and the completion flag.
// Identity, contact details and entitlement are retained.
func (p *UserProfile) ResetOnboarding() {
	p.CraftType = ""
	p.SkillLevel = ""
	p.HabitFrequency = ""
	p.Goal = ""
	p.Struggles = nil
	p.HasCompletedOnboarding = false
}

// NormalizeStruggles trims, deduplicates and sorts tags. Struggles are a
// set, so their order carries no meaning.
func NormalizeStruggles(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// OnboardingField names a single answer the presentation layer can save.
type OnboardingField string

const (
	FieldName      OnboardingField = "name"
	FieldEmail     OnboardingField = "email"
	FieldCraft     OnboardingField = "craft"
	FieldSkill     OnboardingField = "skill"
	FieldHabit     OnboardingField = "habit"
	FieldGoal      OnboardingField = "goal"
	FieldStruggles OnboardingField = "struggles" // comma separated, replaces the set
	FieldStruggle  OnboardingField = "struggle"  // toggles one tag
)

// ProfileRepository defines durable operations on the singleton profile.
type ProfileRepository interface {
	// Get returns ErrNotFound when no profile has been stored yet.
	Get(ctx context.Context) (*UserProfile, error)
	// Upsert replaces the stored profile entirely. There is only ever one
	// profile: once a record exists its ID and CreatedAt win over whatever
	// the caller passed, and both are written back into profile. A caller
	// supplied ID is only used for the first write.
	Upsert(ctx context.Context, profile *UserProfile) error
	// SetOnboardingCompleted returns ErrNotFound when no profile exists.
	SetOnboardingCompleted(ctx context.Context, completed bool) error
}
