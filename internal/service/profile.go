package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/msomdec/stitch-flow/internal/domain"
)

// ProfileService owns the in-memory copy of the user profile and every write
// to it. Writes commit to the repository before the cached copy changes and
// before subscribers are told.
type ProfileService struct {
	profiles domain.ProfileRepository
	logger   *slog.Logger

	mu        sync.Mutex
	loaded    bool // guarded by mu
	current   atomic.Pointer[domain.UserProfile]
	observers Observers[*domain.UserProfile]
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles domain.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: loggerOrDefault(logger)}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Load reads the stored profile into memory. A fresh install yields nil.
func (s *ProfileService) Load(ctx context.Context) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.profiles.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	s.current.Store(p)
	s.loaded = true
	s.observers.Publish(p.Clone())
	return p.Clone(), nil
}

// base returns the profile a write starts from. Until a load has succeeded
// the cached copy cannot be trusted, so the repository is read again rather
// than writing a blank record over the stored one. Callers hold s.mu.
func (s *ProfileService) base(ctx context.Context) (*domain.UserProfile, error) {
	if s.loaded {
		return s.current.Load(), nil
	}
	p, err := s.profiles.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	s.current.Store(p)
	s.loaded = true
	return p, nil
}

// Current returns a copy of the profile, or nil when none exists.
func (s *ProfileService) Current() *domain.UserProfile {
	return s.current.Load().Clone()
}

// Upsert replaces the whole profile. Callers read Current, change the copy
// and hand it back; nothing is merged.
func (s *ProfileService) Upsert(ctx context.Context, profile domain.UserProfile) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := profile.Clone()
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// SaveOnboardingAnswer records one onboarding answer, creating the profile
// on the first answer.
func (s *ProfileService) SaveOnboardingAnswer(ctx context.Context, field domain.OnboardingField, value string) (*domain.UserProfile, error) {
	apply, err := answerSetter(field, strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	return s.update(ctx, apply)
}

func answerSetter(field domain.OnboardingField, value string) (func(*domain.UserProfile), error) {
	switch field {
	case domain.FieldName:
		return func(p *domain.UserProfile) { p.Name = value }, nil
	case domain.FieldEmail:
		return func(p *domain.UserProfile) { p.Email = value }, nil
	case domain.FieldCraft:
		return func(p *domain.UserProfile) { p.CraftType = value }, nil
	case domain.FieldSkill:
		return func(p *domain.UserProfile) { p.SkillLevel = value }, nil
	case domain.FieldHabit:
		return func(p *domain.UserProfile) { p.HabitFrequency = value }, nil
	case domain.FieldGoal:
		return func(p *domain.UserProfile) { p.Goal = value }, nil
	case domain.FieldStruggles:
		return func(p *domain.UserProfile) {
			p.Struggles = domain.NormalizeStruggles(strings.Split(value, ","))
		}, nil
	case domain.FieldStruggle:
		if value == "" {
			return nil, fmt.Errorf("%w: struggle tag is empty", domain.ErrValidation)
		}
		return func(p *domain.UserProfile) {
			if i := slices.Index(p.Struggles, value); i >= 0 {
				p.Struggles = slices.Delete(p.Struggles, i, i+1)
				return
			}
			p.Struggles = domain.NormalizeStruggles(append(p.Struggles, value))
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown onboarding field %q", domain.ErrValidation, field)
}

// SetPro records the subscription entitlement.
func (s *ProfileService) SetPro(ctx context.Context, isPro bool) (*domain.UserProfile, error) {
	return s.update(ctx, func(p *domain.UserProfile) { p.IsPro = isPro })
}

// SetOnboardingCompleted flips the onboarding gate. Finishing onboarding
// without having answered anything still needs a record, so one is created
// in that case; clearing the flag on a fresh install is a no-op.
func (s *ProfileService) SetOnboardingCompleted(ctx context.Context, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.base(ctx)
	if err != nil {
		return err
	}
	if cur == nil {
		if !completed {
			return nil
		}
		return s.commit(ctx, &domain.UserProfile{HasCompletedOnboarding: true})
	}

	if err := s.profiles.SetOnboardingCompleted(ctx, completed); err != nil {
		return fmt.Errorf("set onboarding completed: %w", err)
	}
	// Re-read so the cached copy carries the stored timestamps.
	stored, err := s.profiles.Get(ctx)
	if err != nil {
		stored = cur.Clone()
		stored.HasCompletedOnboarding = completed
		s.logger.Warn("reload profile after onboarding flag", "error", err)
	}
	s.current.Store(stored)
	s.observers.Publish(stored.Clone())
	return nil
}

// ResetOnboarding clears the onboarding answers and the completion flag.
// The record itself is kept.
func (s *ProfileService) ResetOnboarding(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.base(ctx)
	if err != nil {
		return err
	}
	if cur == nil {
		return nil
	}
	next := cur.Clone()
	next.ResetOnboarding()
	return s.commit(ctx, next)
}

// Subscribe registers fn to receive a copy of the profile after every
// committed change.
func (s *ProfileService) Subscribe(fn func(*domain.UserProfile)) (unsubscribe func()) {
	return s.observers.Subscribe(fn)
}

func (s *ProfileService) update(ctx context.Context, mutate func(*domain.UserProfile)) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.base(ctx)
	if err != nil {
		return nil, err
	}
	next := cur.Clone()
	if next == nil {
		next = &domain.UserProfile{}
	}
	mutate(next)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// commit writes p and, only on success, swaps it in and notifies
// subscribers. Callers hold s.mu.
func (s *ProfileService) commit(ctx context.Context, p *domain.UserProfile) error {
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.current.Store(p)
	s.loaded = true
	s.observers.Publish(p.Clone())
	return nil
}
