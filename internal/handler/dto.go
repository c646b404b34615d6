package handler

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/msomdec/stitch-flow/internal/app"
	"github.com/msomdec/stitch-flow/internal/domain"
)

// ScreenView tells the presentation what to show for a screen.
type ScreenView struct {
	ID     domain.Screen `json:"id" yaml:"id"`
	Title  string        `json:"title" yaml:"title"`
	Region string        `json:"region" yaml:"region"`
	Next   domain.Screen `json:"next,omitempty" yaml:"next,omitempty"`
}

const (
	regionOnboarding = "onboarding"
	regionMain       = "main"
)

// DescribeScreen is the one place that maps a screen to its view. Adding a
// screen without a case here returns an error instead of rendering nothing.
func DescribeScreen(s domain.Screen) (ScreenView, error) {
	v := ScreenView{ID: s, Region: regionMain}
	switch s {
	case domain.ScreenSplash:
		v.Title = "Welcome"
	case domain.ScreenCraft:
		v.Title = "What do you make?"
	case domain.ScreenSkill:
		v.Title = "Your skill level"
	case domain.ScreenStruggle:
		v.Title = "What slows you down?"
	case domain.ScreenStatsProblem:
		v.Title = "You're not alone"
	case domain.ScreenHabit:
		v.Title = "How often do you craft?"
	case domain.ScreenGoal:
		v.Title = "Your goal"
	case domain.ScreenStatsSolution:
		v.Title = "Counting that keeps up"
	case domain.ScreenLoading:
		v.Title = "Building your plan"
	case domain.ScreenResult:
		v.Title = "Your plan"
	case domain.ScreenHowItWorks:
		v.Title = "How it works"
	case domain.ScreenStats:
		v.Title = "Crafters like you"
	case domain.ScreenCameraPermissions:
		v.Title = "Camera access"
	case domain.ScreenCalibration:
		v.Title = "Calibrate the camera"
	case domain.ScreenSubscription:
		v.Title = "Go Pro"
	case domain.ScreenDownsell:
		v.Title = "A better offer"
	case domain.ScreenPermissions:
		v.Title = "Notifications"
	case domain.ScreenFreeTierWelcome:
		v.Title = "Welcome to the free plan"
	case domain.ScreenDashboard:
		v.Title = "Your projects"
	case domain.ScreenWorkMode:
		v.Title = "Counting"
	case domain.ScreenSessionSummary:
		v.Title = "Session summary"
	case domain.ScreenSettings:
		v.Title = "Settings"
	case domain.ScreenPatternVerification:
		v.Title = "Check the pattern"
	case domain.ScreenProjectSetup:
		v.Title = "New project"
	case domain.ScreenProjectDetail:
		v.Title = "Project"
	case domain.ScreenPatternUpload:
		v.Title = "Upload a pattern"
	case domain.ScreenHelp:
		v.Title = "Help"
	case domain.ScreenNotifications:
		v.Title = "Notifications"
	case domain.ScreenProfile:
		v.Title = "Profile"
	default:
		return ScreenView{}, fmt.Errorf("%w: no view for screen %q", domain.ErrValidation, s)
	}
	if s.IsOnboarding() {
		v.Region = regionOnboarding
	}
	if next, ok := domain.NextScreen(s); ok {
		v.Next = next
	}
	return v, nil
}

// ProfileView is the JSON representation of the user profile.
type ProfileView struct {
	ID                     string   `json:"id" yaml:"id"`
	Name                   string   `json:"name" yaml:"name"`
	Email                  string   `json:"email" yaml:"email"`
	CraftType              string   `json:"craftType" yaml:"craftType"`
	SkillLevel             string   `json:"skillLevel" yaml:"skillLevel"`
	HabitFrequency         string   `json:"habitFrequency" yaml:"habitFrequency"`
	Goal                   string   `json:"goal" yaml:"goal"`
	Struggles              []string `json:"struggles" yaml:"struggles"`
	IsPro                  bool     `json:"isPro" yaml:"isPro"`
	HasCompletedOnboarding bool     `json:"hasCompletedOnboarding" yaml:"hasCompletedOnboarding"`
	CreatedAt              string   `json:"createdAt" yaml:"createdAt"`
	UpdatedAt              string   `json:"updatedAt" yaml:"updatedAt"`
}

func toProfileView(p *domain.UserProfile) *ProfileView {
	if p == nil {
		return nil
	}
	return &ProfileView{
		ID:                     p.ID,
		Name:                   p.Name,
		Email:                  p.Email,
		CraftType:              p.CraftType,
		SkillLevel:             p.SkillLevel,
		HabitFrequency:         p.HabitFrequency,
		Goal:                   p.Goal,
		Struggles:              domain.NormalizeStruggles(p.Struggles),
		IsPro:                  p.IsPro,
		HasCompletedOnboarding: p.HasCompletedOnboarding,
		CreatedAt:              p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              p.UpdatedAt.Format(time.RFC3339),
	}
}

// ProjectView is the JSON representation of a project.
type ProjectView struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	CraftType      string  `json:"craftType" yaml:"craftType"`
	Status         string  `json:"status" yaml:"status"`
	Progress       float64 `json:"progress" yaml:"progress"`
	ProgressLabel  string  `json:"progressLabel" yaml:"progressLabel"`
	TotalRows      int     `json:"totalRows" yaml:"totalRows"`
	CompletedRows  int     `json:"completedRows" yaml:"completedRows"`
	RowsLabel      string  `json:"rowsLabel" yaml:"rowsLabel"`
	NeedleSize     string  `json:"needleSize" yaml:"needleSize"`
	StitchType     string  `json:"stitchType" yaml:"stitchType"`
	UsesAICounting bool    `json:"usesAICounting" yaml:"usesAICounting"`
	LastWorked     string  `json:"lastWorked" yaml:"lastWorked"`
	Active         bool    `json:"active" yaml:"active"`
	CreatedAt      string  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      string  `json:"updatedAt" yaml:"updatedAt"`
	UpdatedAgo     string  `json:"updatedAgo" yaml:"updatedAgo"`
}

func toProjectView(p domain.Project, activeID string) ProjectView {
	return ProjectView{
		ID:             p.ID,
		Name:           p.Name,
		CraftType:      p.CraftType,
		Status:         string(p.Status),
		Progress:       p.Progress,
		ProgressLabel:  humanize.FtoaWithDigits(p.Progress*100, 1) + "%",
		TotalRows:      p.TotalRows,
		CompletedRows:  p.CompletedRows,
		RowsLabel:      humanize.Comma(int64(p.CompletedRows)) + " of " + humanize.Comma(int64(p.TotalRows)) + " rows",
		NeedleSize:     p.NeedleSize,
		StitchType:     p.StitchType,
		UsesAICounting: p.UsesAICounting,
		LastWorked:     p.LastWorked,
		Active:         p.ID != "" && p.ID == activeID,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
		UpdatedAgo:     humanize.Time(p.UpdatedAt),
	}
}

func toProjectViews(projects []domain.Project, activeID string) []ProjectView {
	views := make([]ProjectView, len(projects))
	for i, p := range projects {
		views[i] = toProjectView(p, activeID)
	}
	return views
}

// SessionView is the JSON representation of a work session.
type SessionView struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId,omitempty"`
	RowsKnit    int     `json:"rowsKnit"`
	TimeSpent   string  `json:"timeSpent"`
	StartedAt   string  `json:"startedAt"`
	StartedAgo  string  `json:"startedAgo"`
	EndedAt     *string `json:"endedAt"`
	IsFinalized bool    `json:"isFinalized"`
}

func toSessionView(s *domain.WorkSession) SessionView {
	v := SessionView{
		ID:          s.ID,
		ProjectID:   s.ProjectID,
		RowsKnit:    s.RowsKnit,
		TimeSpent:   s.TimeSpent.Round(time.Second).String(),
		StartedAt:   s.StartedAt.Format(time.RFC3339),
		StartedAgo:  humanize.Time(s.StartedAt),
		IsFinalized: s.Finalized(),
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.Format(time.RFC3339)
		v.EndedAt = &ended
	}
	return v
}

func toSessionViews(sessions []domain.WorkSession) []SessionView {
	views := make([]SessionView, len(sessions))
	for i := range sessions {
		views[i] = toSessionView(&sessions[i])
	}
	return views
}

// StateView is everything the presentation needs to draw the current
// screen. It is what GET /api/state returns and what the event stream
// pushes.
type StateView struct {
	Screen          ScreenView    `json:"screen" yaml:"screen"`
	Profile         *ProfileView  `json:"profile" yaml:"profile"`
	Projects        []ProjectView `json:"projects" yaml:"projects"`
	ActiveProjectID string        `json:"activeProjectId" yaml:"activeProjectId"`
}

// NewStateView converts an app state for output.
func NewStateView(st app.State) (StateView, error) {
	screen, err := DescribeScreen(st.Screen)
	if err != nil {
		return StateView{}, err
	}
	return StateView{
		Screen:          screen,
		Profile:         toProfileView(st.Profile),
		Projects:        toProjectViews(st.Projects, st.ActiveProjectID),
		ActiveProjectID: st.ActiveProjectID,
	}, nil
}
