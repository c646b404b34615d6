package domain

import (
	"context"
	"time"
)

// WorkSession records one sitting of work. ProjectID is empty for ad-hoc
// sessions. A session is open until EndedAt is set.
type WorkSession struct {
	ID        string
	ProjectID string
	RowsKnit  int
	TimeSpent time.Duration
	StartedAt time.Time
	EndedAt   *time.Time
}

// Finalized reports whether the session has been stopped.
func (s *WorkSession) Finalized() bool {
	return s.EndedAt != nil
}

type WorkSessionRepository interface {
	Create(ctx context.Context, session *WorkSession) error
	GetByID(ctx context.Context, id string) (*WorkSession, error)
	ListByProject(ctx context.Context, projectID string) ([]WorkSession, error)
	ListRecent(ctx context.Context, limit int) ([]WorkSession, error)
	Update(ctx context.Context, session *WorkSession) error
	Delete(ctx context.Context, id string) error
}
