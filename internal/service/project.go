package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/stitch-flow/internal/domain"
)

// ProjectSnapshot is the project collection together with the active
// project pointer, as seen at one instant.
type ProjectSnapshot struct {
	Projects []domain.Project // newest first
	ActiveID string
}

func (s *ProjectSnapshot) index(id string) int {
	return slices.IndexFunc(s.Projects, func(p domain.Project) bool { return p.ID == id })
}

func (s *ProjectSnapshot) clone() ProjectSnapshot {
	return ProjectSnapshot{Projects: slices.Clone(s.Projects), ActiveID: s.ActiveID}
}

// ProjectService keeps an in-memory mirror of the stored projects for fast
// reads. Writers are serialized and commit to the repository first; the new
// snapshot then replaces the old one in a single atomic swap, so readers see
// either the state before a write or after it.
type ProjectService struct {
	projects domain.ProjectRepository
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     atomic.Pointer[ProjectSnapshot]
	observers Observers[ProjectSnapshot]
}

// NewProjectService creates a new ProjectService with an empty cache; call
// Load to fill it.
func NewProjectService(projects domain.ProjectRepository, logger *slog.Logger) *ProjectService {
	s := &ProjectService{
		projects: projects,
		logger:   loggerOrDefault(logger),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.state.Store(&ProjectSnapshot{})
	return s
}

// Load replaces the cache with the stored projects and active pointer.
func (s *ProjectService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.projects.List(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	activeID, err := s.projects.GetActiveID(ctx)
	if err != nil {
		return fmt.Errorf("get active project: %w", err)
	}
	s.swap(&ProjectSnapshot{Projects: projects, ActiveID: activeID})
	return nil
}

// Snapshot returns a copy of the current collection and active pointer.
func (s *ProjectService) Snapshot() ProjectSnapshot {
	return s.state.Load().clone()
}

// List returns the projects, newest first.
func (s *ProjectService) List() []domain.Project {
	return slices.Clone(s.state.Load().Projects)
}

func (s *ProjectService) Get(id string) (*domain.Project, error) {
	st := s.state.Load()
	i := st.index(id)
	if i < 0 {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	p := st.Projects[i]
	return &p, nil
}

// Active returns the active project, or nil when none is set.
func (s *ProjectService) Active() *domain.Project {
	st := s.state.Load()
	if st.ActiveID == "" {
		return nil
	}
	i := st.index(st.ActiveID)
	if i < 0 {
		return nil
	}
	p := st.Projects[i]
	return &p
}

// Create stores a new project. It assigns an ID when none is given, defaults
// the status to active, stamps both timestamps and derives progress.
func (s *ProjectService) Create(ctx context.Context, project domain.Project) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = domain.ProjectStatusActive
	}
	now := s.now()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.DeriveProgress()
	if err := project.Validate(); err != nil {
		return nil, err
	}

	st := s.state.Load()
	if st.index(project.ID) >= 0 {
		return nil, fmt.Errorf("%w: project %s already exists", domain.ErrValidation, project.ID)
	}
	if err := s.projects.Create(ctx, &project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	next := &ProjectSnapshot{
		Projects: append([]domain.Project{project}, st.Projects...),
		ActiveID: st.ActiveID,
	}
	s.swap(next)
	s.logger.Info("project created", "project_id", project.ID)
	return &project, nil
}

// Update applies mutate to a copy of the stored project and writes it back.
// The ID and CreatedAt cannot be changed, progress is re-derived from the
// row counts and UpdatedAt never moves backwards. A mutation that breaks an
// invariant is rejected and nothing changes.
func (s *ProjectService) Update(ctx context.Context, id string, mutate func(*domain.Project)) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	i := st.index(id)
	if i < 0 {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	prev := st.Projects[i]

	project := prev
	mutate(&project)
	project.ID = prev.ID
	project.CreatedAt = prev.CreatedAt
	project.UpdatedAt = s.now()
	if project.UpdatedAt.Before(prev.UpdatedAt) {
		project.UpdatedAt = prev.UpdatedAt
	}
	project.DeriveProgress()
	if err := project.Validate(); err != nil {
		return nil, err
	}

	if err := s.projects.Update(ctx, &project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	next := st.clone()
	next.Projects[i] = project
	s.swap(&next)
	return &project, nil
}

// Delete removes a project. If it was the active project the pointer is
// cleared in the same store write and the same cache swap.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	i := st.index(id)
	if i < 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	next := st.clone()
	next.Projects = slices.Delete(next.Projects, i, i+1)
	if next.ActiveID == id {
		next.ActiveID = ""
	}
	s.swap(&next)
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// SetActive points the active project at id. An empty id clears it; an id
// that matches no project is a validation error.
func (s *ProjectService) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	if id != "" && st.index(id) < 0 {
		return fmt.Errorf("%w: unknown project %s", domain.ErrValidation, id)
	}
	if st.ActiveID == id {
		return nil
	}
	if err := s.projects.SetActiveID(ctx, id); err != nil {
		return fmt.Errorf("set active project: %w", err)
	}

	next := st.clone()
	next.ActiveID = id
	s.swap(&next)
	return nil
}

// Subscribe registers fn to receive the collection after every change.
func (s *ProjectService) Subscribe(fn func(ProjectSnapshot)) (unsubscribe func()) {
	return s.observers.Subscribe(fn)
}

// swap installs next and notifies subscribers. Callers hold s.mu.
func (s *ProjectService) swap(next *ProjectSnapshot) {
	s.state.Store(next)
	s.observers.Publish(next.clone())
}
