package domain

import "context"

// LegacyStore is a read-only view over the flat key-value storage used
// before structured records existed.
type LegacyStore interface {
	HasCompletedOnboarding(ctx context.Context) (bool, error)
	// ReadOnboardingFields returns whatever answers the legacy store holds.
	// Missing keys are left at their zero value.
	ReadOnboardingFields(ctx context.Context) (UserProfile, error)
}
