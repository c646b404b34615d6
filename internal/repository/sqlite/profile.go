package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/stitch-flow/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository using SQLite.
// Every write commits before returning.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new SQLite-backed ProfileRepository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db.SqlDB}
}

func (r *ProfileRepository) Get(ctx context.Context) (*domain.UserProfile, error) {
	p := &domain.UserProfile{}
	var struggles string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, craft_type, skill_level, habit_frequency, goal,
		 struggles, is_pro, has_completed_onboarding, created_at, updated_at
		 FROM user_profile WHERE singleton = 1`,
	).Scan(&p.ID, &p.Name, &p.Email, &p.CraftType, &p.SkillLevel, &p.HabitFrequency, &p.Goal,
		&struggles, &p.IsPro, &p.HasCompletedOnboarding, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError("query profile", err)
	}
	if err := json.Unmarshal([]byte(struggles), &p.Struggles); err != nil {
		return nil, fmt.Errorf("decode struggles: %w", err)
	}
	p.Struggles = domain.NormalizeStruggles(p.Struggles)
	return p, nil
}

// Upsert replaces the stored profile. The identity of an existing record is
// kept even when profile carries a different ID, and is written back into
// profile; a first write assigns one unless the caller supplied it.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	struggles := domain.NormalizeStruggles(profile.Struggles)
	encoded, err := json.Marshal(struggles)
	if err != nil {
		return fmt.Errorf("encode struggles: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin tx", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	id, createdAt := profile.ID, now
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM user_profile WHERE singleton = 1",
	).Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if id == "" {
			id = uuid.NewString()
		}
	case err != nil:
		return storageError("query profile", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_profile (singleton, id, name, email, craft_type, skill_level,
		 habit_frequency, goal, struggles, is_pro, has_completed_onboarding, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(singleton) DO UPDATE SET
		 name = excluded.name, email = excluded.email, craft_type = excluded.craft_type,
		 skill_level = excluded.skill_level, habit_frequency = excluded.habit_frequency,
		 goal = excluded.goal, struggles = excluded.struggles, is_pro = excluded.is_pro,
		 has_completed_onboarding = excluded.has_completed_onboarding,
		 updated_at = excluded.updated_at`,
		id, profile.Name, profile.Email, profile.CraftType, profile.SkillLevel,
		profile.HabitFrequency, profile.Goal, string(encoded), profile.IsPro,
		profile.HasCompletedOnboarding, createdAt, now,
	)
	if err != nil {
		return storageError("upsert profile", err)
	}

	if err := tx.Commit(); err != nil {
		return storageError("commit", err)
	}

	profile.ID = id
	profile.Struggles = struggles
	profile.CreatedAt = createdAt
	profile.UpdatedAt = now
	return nil
}

func (r *ProfileRepository) SetOnboardingCompleted(ctx context.Context, completed bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE user_profile SET has_completed_onboarding = ?, updated_at = ? WHERE singleton = 1",
		completed, time.Now().UTC(),
	)
	if err != nil {
		return storageError("update onboarding flag", err)
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
