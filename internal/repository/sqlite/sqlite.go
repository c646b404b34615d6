package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/msomdec/stitch-flow/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB is the structured record store. It implements domain.Database and
// hands out the repositories that share its connection.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrStorageUnavailable, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable WAL mode: %w", domain.ErrStorageUnavailable, err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable foreign keys: %w", domain.ErrStorageUnavailable, err)
	}

	// A single connection keeps the pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrStorageUnavailable, err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if err := migrations.Run(ctx, db.SqlDB); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Profiles() *ProfileRepository {
	return NewProfileRepository(db)
}

func (db *DB) Projects() *ProjectRepository {
	return NewProjectRepository(db)
}

func (db *DB) Sessions() *WorkSessionRepository {
	return NewWorkSessionRepository(db)
}

// storageError wraps a driver error. Constraint failures mean a record
// invariant was violated; anything else means the store could not be used.
func storageError(op string, err error) error {
	if isConstraintError(err, "CHECK constraint failed") {
		return fmt.Errorf("%w: %s: %v", domain.ErrValidation, op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

// isConstraintError checks if the error is a SQLite constraint violation of
// the given kind.
func isConstraintError(err error, kind string) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) && strings.Contains(err.Error(), kind)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
