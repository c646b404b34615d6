package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/msomdec/stitch-flow/internal/domain"
)

var errDiskFull = errors.New("disk full")

// memProfiles is an in-memory domain.ProfileRepository with switchable
// failures.
type memProfiles struct {
	profile     *domain.UserProfile
	upserts     int
	failUpsert  error
	failSetFlag error
	failGet     error
}

func (m *memProfiles) Get(context.Context) (*domain.UserProfile, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	if m.profile == nil {
		return nil, domain.ErrNotFound
	}
	return m.profile.Clone(), nil
}

func (m *memProfiles) Upsert(_ context.Context, p *domain.UserProfile) error {
	if m.failUpsert != nil {
		return m.failUpsert
	}
	now := time.Now().UTC()
	if m.profile != nil {
		p.ID = m.profile.ID
		p.CreatedAt = m.profile.CreatedAt
	} else {
		if p.ID == "" {
			p.ID = "profile-1"
		}
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Struggles = domain.NormalizeStruggles(p.Struggles)
	m.profile = p.Clone()
	m.upserts++
	return nil
}

func (m *memProfiles) SetOnboardingCompleted(_ context.Context, completed bool) error {
	if m.failSetFlag != nil {
		return m.failSetFlag
	}
	if m.profile == nil {
		return domain.ErrNotFound
	}
	m.profile.HasCompletedOnboarding = completed
	m.profile.UpdatedAt = time.Now().UTC()
	return nil
}

// memProjects is an in-memory domain.ProjectRepository.
type memProjects struct {
	projects []domain.Project // newest first
	activeID string
	fail     error
}

func (m *memProjects) Create(_ context.Context, p *domain.Project) error {
	if m.fail != nil {
		return m.fail
	}
	m.projects = append([]domain.Project{*p}, m.projects...)
	return nil
}

func (m *memProjects) index(id string) int {
	return slices.IndexFunc(m.projects, func(p domain.Project) bool { return p.ID == id })
}

func (m *memProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	i := m.index(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	p := m.projects[i]
	return &p, nil
}

func (m *memProjects) List(context.Context) ([]domain.Project, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	return slices.Clone(m.projects), nil
}

func (m *memProjects) Update(_ context.Context, p *domain.Project) error {
	if m.fail != nil {
		return m.fail
	}
	i := m.index(p.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.projects[i] = *p
	return nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	if m.fail != nil {
		return m.fail
	}
	i := m.index(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.projects = slices.Delete(m.projects, i, i+1)
	if m.activeID == id {
		m.activeID = ""
	}
	return nil
}

func (m *memProjects) GetActiveID(context.Context) (string, error) {
	return m.activeID, nil
}

func (m *memProjects) SetActiveID(_ context.Context, id string) error {
	if m.fail != nil {
		return m.fail
	}
	if id != "" && m.index(id) < 0 {
		return domain.ErrValidation
	}
	m.activeID = id
	return nil
}

// memSessions is an in-memory domain.WorkSessionRepository.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.WorkSession
	order    []string
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.WorkSession)}
}

func (m *memSessions) Create(_ context.Context, s *domain.WorkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (*domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memSessions) ListByProject(_ context.Context, projectID string) ([]domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WorkSession
	for i := len(m.order) - 1; i >= 0; i-- {
		if s := m.sessions[m.order[i]]; s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) ListRecent(_ context.Context, limit int) ([]domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WorkSession
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		if s, ok := m.sessions[m.order[i]]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) Update(_ context.Context, s *domain.WorkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrNotFound
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// memLegacy is a domain.LegacyStore over fixed fields.
type memLegacy struct {
	fields domain.UserProfile
	fail   error
}

func (m *memLegacy) HasCompletedOnboarding(context.Context) (bool, error) {
	if m.fail != nil {
		return false, m.fail
	}
	return m.fields.HasCompletedOnboarding, nil
}

func (m *memLegacy) ReadOnboardingFields(context.Context) (domain.UserProfile, error) {
	if m.fail != nil {
		return domain.UserProfile{}, m.fail
	}
	return *m.fields.Clone(), nil
}
