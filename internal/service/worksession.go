package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/stitch-flow/internal/domain"
)

// lastWorkedLayout formats the project's "last worked" label.
const lastWorkedLayout = "Jan 2, 2006"

// WorkSessionService handles the work session lifecycle and feeds counted
// rows back into the project. Mutations are serialized so a session is
// finalized and credited at most once.
type WorkSessionService struct {
	sessions domain.WorkSessionRepository
	projects *ProjectService
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewWorkSessionService creates a new WorkSessionService.
func NewWorkSessionService(sessions domain.WorkSessionRepository, projects *ProjectService, logger *slog.Logger) *WorkSessionService {
	return &WorkSessionService{
		sessions: sessions,
		projects: projects,
		logger:   loggerOrDefault(logger),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session. An empty projectID starts an ad-hoc session.
func (s *WorkSessionService) Start(ctx context.Context, projectID string) (*domain.WorkSession, error) {
	if projectID != "" {
		if _, err := s.projects.Get(projectID); err != nil {
			return nil, fmt.Errorf("start session: %w", err)
		}
	}

	session := &domain.WorkSession{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		StartedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetByID returns a work session by ID.
func (s *WorkSessionService) GetByID(ctx context.Context, id string) (*domain.WorkSession, error) {
	return s.sessions.GetByID(ctx, id)
}

func (s *WorkSessionService) ListByProject(ctx context.Context, projectID string) ([]domain.WorkSession, error) {
	return s.sessions.ListByProject(ctx, projectID)
}

func (s *WorkSessionService) Recent(ctx context.Context, limit int) ([]domain.WorkSession, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.sessions.ListRecent(ctx, limit)
}

// AddRows adjusts the row count of an open session. A negative delta undoes
// rows but never below zero.
func (s *WorkSessionService) AddRows(ctx context.Context, id string, delta int) (*domain.WorkSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, fmt.Errorf("%w: session is finalized", domain.ErrValidation)
	}
	if session.RowsKnit+delta < 0 {
		return nil, fmt.Errorf("%w: rows knit cannot go below zero", domain.ErrValidation)
	}
	session.RowsKnit += delta
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Stop finalizes an open session and credits its rows to the project. If
// the project cannot take the rows the session stays open.
func (s *WorkSessionService) Stop(ctx context.Context, id string) (*domain.WorkSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, fmt.Errorf("%w: session is already finalized", domain.ErrValidation)
	}

	end := s.now()
	if end.Before(session.StartedAt) {
		end = session.StartedAt
	}

	if session.ProjectID != "" {
		_, err := s.projects.Update(ctx, session.ProjectID, func(p *domain.Project) {
			p.CompletedRows += session.RowsKnit
			p.LastWorked = end.Format(lastWorkedLayout)
		})
		if err != nil {
			return nil, fmt.Errorf("credit rows to project: %w", err)
		}
	}

	session.EndedAt = &end
	session.TimeSpent = end.Sub(session.StartedAt)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}
	s.logger.Info("work session finalized",
		"session_id", session.ID, "project_id", session.ProjectID,
		"rows", session.RowsKnit, "time_spent", session.TimeSpent)
	return session, nil
}

// Correct replaces the row count of a finalized session and moves the
// project's completed rows by the difference.
func (s *WorkSessionService) Correct(ctx context.Context, id string, rows int) (*domain.WorkSession, error) {
	if rows < 0 {
		return nil, fmt.Errorf("%w: rows knit cannot be negative", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Finalized() {
		return nil, fmt.Errorf("%w: only finalized sessions can be corrected", domain.ErrValidation)
	}

	delta := rows - session.RowsKnit
	if delta == 0 {
		return session, nil
	}
	if session.ProjectID != "" {
		_, err := s.projects.Update(ctx, session.ProjectID, func(p *domain.Project) {
			p.CompletedRows += delta
		})
		if err != nil {
			return nil, fmt.Errorf("correct project rows: %w", err)
		}
	}

	session.RowsKnit = rows
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Delete removes a session without touching project rows.
func (s *WorkSessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Delete(ctx, id)
}
