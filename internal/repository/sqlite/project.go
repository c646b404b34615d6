package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msomdec/stitch-flow/internal/domain"
)

// ProjectRepository implements domain.ProjectRepository using SQLite.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new SQLite-backed ProjectRepository.
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db.SqlDB}
}

const projectColumns = `id, user_id, name, craft_type, status, progress, total_rows, completed_rows,
	needle_size, stitch_type, uses_ai_counting, last_worked, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	p := &domain.Project{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.CraftType, &p.Status, &p.Progress,
		&p.TotalRows, &p.CompletedRows, &p.NeedleSize, &p.StitchType, &p.UsesAICounting,
		&p.LastWorked, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts the project as given. The caller assigns ID and timestamps.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.UserID, project.Name, project.CraftType, project.Status,
		project.Progress, project.TotalRows, project.CompletedRows, project.NeedleSize,
		project.StitchType, project.UsesAICounting, project.LastWorked,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		if isConstraintError(err, "UNIQUE constraint failed") {
			return fmt.Errorf("%w: project %s already exists", domain.ErrValidation, project.ID)
		}
		return storageError("insert project", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError("get project", err)
	}
	return p, nil
}

// List returns projects in reverse insertion order, newest first.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY rowid DESC`)
	if err != nil {
		return nil, storageError("list projects", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update writes every mutable column. The caller sets UpdatedAt.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET
		 user_id = ?, name = ?, craft_type = ?, status = ?, progress = ?,
		 total_rows = ?, completed_rows = ?, needle_size = ?, stitch_type = ?,
		 uses_ai_counting = ?, last_worked = ?, updated_at = ?
		 WHERE id = ?`,
		project.UserID, project.Name, project.CraftType, project.Status, project.Progress,
		project.TotalRows, project.CompletedRows, project.NeedleSize, project.StitchType,
		project.UsesAICounting, project.LastWorked, project.UpdatedAt, project.ID,
	)
	if err != nil {
		return storageError("update project", err)
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

// Delete removes the project and clears the active pointer if it referenced
// it. Both happen in one transaction; the foreign key's ON DELETE SET NULL
// covers the pointer as well.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE active_project SET project_id = NULL WHERE project_id = ?", id); err != nil {
		return storageError("clear active project", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return storageError("delete project", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return storageError("commit", err)
	}
	return nil
}

func (r *ProjectRepository) GetActiveID(ctx context.Context) (string, error) {
	var id sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT project_id FROM active_project WHERE singleton = 1").Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", storageError("get active project", err)
	}
	return id.String, nil
}

// SetActiveID points the active project at id, or clears it when id is
// empty. An id that matches no project fails the foreign key and is
// reported as ErrValidation.
func (r *ProjectRepository) SetActiveID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO active_project (singleton, project_id) VALUES (1, ?)
		 ON CONFLICT(singleton) DO UPDATE SET project_id = excluded.project_id`,
		nullString(id),
	)
	if err != nil {
		if isConstraintError(err, "FOREIGN KEY constraint failed") {
			return fmt.Errorf("%w: unknown project %s", domain.ErrValidation, id)
		}
		return storageError("set active project", err)
	}
	return nil
}
