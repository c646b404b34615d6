package domain

import (
	"fmt"
	"slices"
)

// Screen identifies one screen of the app. The set is closed; identifiers
// are stable because the presentation layer dispatches on them.
type Screen string

const (
	ScreenSplash              Screen = "splash"
	ScreenCraft               Screen = "craft"
	ScreenSkill               Screen = "skill"
	ScreenStruggle            Screen = "struggle"
	ScreenStatsProblem        Screen = "statsProblem"
	ScreenHabit               Screen = "habit"
	ScreenGoal                Screen = "goal"
	ScreenStatsSolution       Screen = "statsSolution"
	ScreenLoading             Screen = "loading"
	ScreenResult              Screen = "result"
	ScreenHowItWorks          Screen = "howItWorks"
	ScreenStats               Screen = "stats"
	ScreenCameraPermissions   Screen = "cameraPermissions"
	ScreenCalibration         Screen = "calibration"
	ScreenSubscription        Screen = "subscription"
	ScreenDownsell            Screen = "downsell"
	ScreenPermissions         Screen = "permissions"
	ScreenFreeTierWelcome     Screen = "freeTierWelcome"
	ScreenDashboard           Screen = "dashboard"
	ScreenWorkMode            Screen = "workMode"
	ScreenSessionSummary      Screen = "sessionSummary"
	ScreenSettings            Screen = "settings"
	ScreenPatternVerification Screen = "patternVerification"
	ScreenProjectSetup        Screen = "projectSetup"
	ScreenProjectDetail       Screen = "projectDetail"
	ScreenPatternUpload       Screen = "patternUpload"
	ScreenHelp                Screen = "help"
	ScreenNotifications       Screen = "notifications"
	ScreenProfile             Screen = "profile"
)

var allScreens = []Screen{
	ScreenSplash, ScreenCraft, ScreenSkill, ScreenStruggle, ScreenStatsProblem,
	ScreenHabit, ScreenGoal, ScreenStatsSolution, ScreenLoading, ScreenResult,
	ScreenHowItWorks, ScreenStats, ScreenCameraPermissions, ScreenCalibration,
	ScreenSubscription, ScreenDownsell, ScreenPermissions, ScreenFreeTierWelcome,
	ScreenDashboard, ScreenWorkMode, ScreenSessionSummary, ScreenSettings,
	ScreenPatternVerification, ScreenProjectSetup, ScreenProjectDetail,
	ScreenPatternUpload, ScreenHelp, ScreenNotifications, ScreenProfile,
}

// Screens returns every screen in flow order.
func Screens() []Screen {
	return slices.Clone(allScreens)
}

// Valid reports whether s is one of the known identifiers.
func (s Screen) Valid() bool {
	return slices.Contains(allScreens, s)
}

// ParseScreen converts an identifier into a Screen.
func ParseScreen(v string) (Screen, error) {
	s := Screen(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown screen %q", ErrValidation, v)
	}
	return s, nil
}

// IsOnboarding reports whether s belongs to the onboarding flow rather than
// the steady-state dashboard region.
func (s Screen) IsOnboarding() bool {
	i := slices.Index(allScreens, s)
	return i >= 0 && i < slices.Index(allScreens, ScreenDashboard)
}

// linearFlow lists the default successor of each screen that has a single
// "continue" path. Branch points (cameraPermissions, subscription, downsell)
// and permissions, which finishes onboarding, are resolved by dedicated
// transitions instead.
var linearFlow = map[Screen]Screen{
	ScreenSplash:              ScreenCraft,
	ScreenCraft:               ScreenSkill,
	ScreenSkill:               ScreenStruggle,
	ScreenStruggle:            ScreenStatsProblem,
	ScreenStatsProblem:        ScreenHabit,
	ScreenHabit:               ScreenGoal,
	ScreenGoal:                ScreenStatsSolution,
	ScreenStatsSolution:       ScreenLoading,
	ScreenLoading:             ScreenResult,
	ScreenResult:              ScreenHowItWorks,
	ScreenHowItWorks:          ScreenStats,
	ScreenStats:               ScreenCameraPermissions,
	ScreenCalibration:         ScreenSubscription,
	ScreenFreeTierWelcome:     ScreenPermissions,
	ScreenWorkMode:            ScreenSessionSummary,
	ScreenSessionSummary:      ScreenDashboard,
	ScreenProjectSetup:        ScreenPatternUpload,
	ScreenPatternUpload:       ScreenPatternVerification,
	ScreenPatternVerification: ScreenProjectDetail,
}

// NextScreen returns the default successor of s in the product flow graph.
func NextScreen(s Screen) (Screen, bool) {
	next, ok := linearFlow[s]
	return next, ok
}

// CameraPermission is the result reported by the platform camera prompt.
type CameraPermission string

const (
	CameraGranted      CameraPermission = "granted"
	CameraDenied       CameraPermission = "denied"
	CameraRestricted   CameraPermission = "restricted"
	CameraUndetermined CameraPermission = "undetermined"
)

// ParseCameraPermission converts a reported permission string.
func ParseCameraPermission(v string) (CameraPermission, error) {
	switch p := CameraPermission(v); p {
	case CameraGranted, CameraDenied, CameraRestricted, CameraUndetermined:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown camera permission %q", ErrValidation, v)
}
