package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/msomdec/stitch-flow/internal/domain"
)

// ScreenChange describes one transition. From is empty for the initial
// screen chosen at start.
type ScreenChange struct {
	From domain.Screen
	To   domain.Screen
}

// NavigationService is the screen-flow state machine. Jumps are
// unconditional: the presentation layer decides which screen comes next,
// the service only guarantees that the current screen is always a known
// identifier and that every change reaches every subscriber, in order,
// before the next transition starts.
type NavigationService struct {
	profiles *ProfileService
	logger   *slog.Logger

	mu        sync.Mutex // serializes transitions
	current   atomic.Value
	observers Observers[ScreenChange]
}

// NewNavigationService creates a NavigationService resting on splash until
// Start is called.
func NewNavigationService(profiles *ProfileService, logger *slog.Logger) *NavigationService {
	s := &NavigationService{profiles: profiles, logger: loggerOrDefault(logger)}
	s.current.Store(domain.ScreenSplash)
	return s
}

// InitialScreen returns the screen to show at start for the given profile.
func InitialScreen(profile *domain.UserProfile) domain.Screen {
	if profile != nil && profile.HasCompletedOnboarding {
		return domain.ScreenDashboard
	}
	return domain.ScreenSplash
}

// Start computes the initial screen from profile and publishes it.
func (s *NavigationService) Start(profile *domain.UserProfile) domain.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	initial := InitialScreen(profile)
	s.current.Store(initial)
	s.logger.Info("navigation started", "screen", initial)
	s.observers.Publish(ScreenChange{To: initial})
	return initial
}

// Current returns the screen being shown.
func (s *NavigationService) Current() domain.Screen {
	return s.current.Load().(domain.Screen)
}

// NavigateTo jumps to target. Unknown identifiers are rejected.
func (s *NavigationService) NavigateTo(target domain.Screen) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown screen %q", domain.ErrValidation, target)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transition(target)
	return nil
}

// Advance follows the default "continue" edge of the flow graph from the
// current screen.
func (s *NavigationService) Advance() (domain.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Current()
	next, ok := domain.NextScreen(cur)
	if !ok {
		return cur, fmt.Errorf("%w: %s has no default next screen", domain.ErrValidation, cur)
	}
	s.transition(next)
	return next, nil
}

// CompleteOnboarding persists the onboarding gate and then moves to the
// dashboard. If the write fails the screen does not change.
func (s *NavigationService) CompleteOnboarding(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.profiles.SetOnboardingCompleted(ctx, true); err != nil {
		s.logger.Error("complete onboarding", "error", err, "screen", s.Current())
		return fmt.Errorf("complete onboarding: %w", err)
	}
	s.transition(domain.ScreenDashboard)
	return nil
}

// ResetOnboarding clears the onboarding answers and returns to splash. If
// the write fails the screen does not change.
func (s *NavigationService) ResetOnboarding(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.profiles.ResetOnboarding(ctx); err != nil {
		s.logger.Error("reset onboarding", "error", err, "screen", s.Current())
		return fmt.Errorf("reset onboarding: %w", err)
	}
	s.transition(domain.ScreenSplash)
	return nil
}

// ResolveCameraPermission branches out of cameraPermissions on the result
// reported by the platform: granted continues to calibration, denied or
// restricted sends the user to settings, undetermined stays put.
func (s *NavigationService) ResolveCameraPermission(perm domain.CameraPermission) (domain.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Current()
	if cur != domain.ScreenCameraPermissions {
		return cur, fmt.Errorf("%w: camera permission resolved on %s", domain.ErrValidation, cur)
	}

	var next domain.Screen
	switch perm {
	case domain.CameraGranted:
		next = domain.ScreenCalibration
	case domain.CameraDenied, domain.CameraRestricted:
		next = domain.ScreenSettings
	case domain.CameraUndetermined:
		return cur, nil
	default:
		return cur, fmt.Errorf("%w: unknown camera permission %q", domain.ErrValidation, perm)
	}
	s.transition(next)
	return next, nil
}

// DeclineOffer follows the decline edge of the paywall screens.
func (s *NavigationService) DeclineOffer() (domain.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next domain.Screen
	switch cur := s.Current(); cur {
	case domain.ScreenSubscription:
		next = domain.ScreenDownsell
	case domain.ScreenDownsell:
		next = domain.ScreenFreeTierWelcome
	default:
		return cur, fmt.Errorf("%w: no offer to decline on %s", domain.ErrValidation, cur)
	}
	s.transition(next)
	return next, nil
}

// Subscribe registers fn to receive every screen change. Callbacks run
// while the transition lock is held and must not request transitions.
func (s *NavigationService) Subscribe(fn func(ScreenChange)) (unsubscribe func()) {
	return s.observers.Subscribe(fn)
}

// transition stores to and notifies subscribers. Callers hold s.mu.
func (s *NavigationService) transition(to domain.Screen) {
	from := s.Current()
	s.current.Store(to)
	s.logger.Debug("screen changed", "from", from, "to", to)
	s.observers.Publish(ScreenChange{From: from, To: to})
}
