package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project is a single piece of work the user is tracking. Row counts are
// authoritative; Progress is always derived from them before a write.
type Project struct {
	ID             string `validate:"required"`
	UserID         string
	Name           string `validate:"required,max=200"`
	CraftType      string
	Status         ProjectStatus `validate:"oneof=active paused completed archived"`
	Progress       float64       `validate:"gte=0,lte=1"`
	TotalRows      int           `validate:"gte=0"`
	CompletedRows  int           `validate:"gte=0,ltefield=TotalRows"`
	NeedleSize     string
	StitchType     string
	UsesAICounting bool
	LastWorked     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DeriveProgress recomputes Progress from the row counts.
func (p *Project) DeriveProgress() {
	if p.TotalRows <= 0 {
		p.Progress = 0
		return
	}
	p.Progress = float64(p.CompletedRows) / float64(p.TotalRows)
}

// Validate checks the record invariants. Violations are reported as
// ErrValidation and are never clamped.
func (p *Project) Validate() error {
	if err := validate.Struct(p); err != nil {
		return validationError(err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "ltefield":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// ProjectRepository defines durable operations on projects and the active
// project pointer.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	// List returns projects newest first.
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, project *Project) error
	// Delete removes the project and clears the active pointer if it
	// referenced it, in one write.
	Delete(ctx context.Context, id string) error
	// GetActiveID returns "" when no project is active.
	GetActiveID(ctx context.Context) (string, error)
	SetActiveID(ctx context.Context, id string) error
}
