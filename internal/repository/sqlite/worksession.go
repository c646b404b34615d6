package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/stitch-flow/internal/domain"
)

// WorkSessionRepository implements domain.WorkSessionRepository using SQLite.
type WorkSessionRepository struct {
	db *sql.DB
}

// NewWorkSessionRepository creates a new SQLite-backed WorkSessionRepository.
func NewWorkSessionRepository(db *DB) *WorkSessionRepository {
	return &WorkSessionRepository{db: db.SqlDB}
}

const sessionColumns = `id, project_id, rows_knit, time_spent_ms, started_at, ended_at`

func scanSession(row rowScanner) (*domain.WorkSession, error) {
	s := &domain.WorkSession{}
	var projectID sql.NullString
	var spentMS int64
	if err := row.Scan(&s.ID, &projectID, &s.RowsKnit, &spentMS, &s.StartedAt, &s.EndedAt); err != nil {
		return nil, err
	}
	s.ProjectID = projectID.String
	s.TimeSpent = time.Duration(spentMS) * time.Millisecond
	return s, nil
}

func (r *WorkSessionRepository) Create(ctx context.Context, session *domain.WorkSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, nullString(session.ProjectID), session.RowsKnit,
		session.TimeSpent.Milliseconds(), session.StartedAt, session.EndedAt,
	)
	if err != nil {
		if isConstraintError(err, "FOREIGN KEY constraint failed") {
			return fmt.Errorf("%w: unknown project %s", domain.ErrValidation, session.ProjectID)
		}
		return storageError("insert work session", err)
	}
	return nil
}

func (r *WorkSessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError("get work session", err)
	}
	return s, nil
}

func (r *WorkSessionRepository) ListByProject(ctx context.Context, projectID string) ([]domain.WorkSession, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions
		 WHERE project_id = ? ORDER BY started_at DESC, rowid DESC`, projectID)
}

func (r *WorkSessionRepository) ListRecent(ctx context.Context, limit int) ([]domain.WorkSession, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions
		 ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
}

func (r *WorkSessionRepository) list(ctx context.Context, query string, args ...any) ([]domain.WorkSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list work sessions", err)
	}
	defer rows.Close()

	var sessions []domain.WorkSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *WorkSessionRepository) Update(ctx context.Context, session *domain.WorkSession) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_sessions SET rows_knit = ?, time_spent_ms = ?, ended_at = ?
		 WHERE id = ?`,
		session.RowsKnit, session.TimeSpent.Milliseconds(), session.EndedAt, session.ID,
	)
	if err != nil {
		return storageError("update work session", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WorkSessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM work_sessions WHERE id = ?", id)
	if err != nil {
		return storageError("delete work session", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
