package migrations_test

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/msomdec/stitch-flow/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	// Enable foreign keys for consistency with production.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	// Verify the profile table exists by inserting a row.
	_, err := db.ExecContext(ctx,
		`INSERT INTO user_profile (singleton, id, created_at, updated_at)
		 VALUES (1, 'abc', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("insert into user_profile: %v", err)
	}

	// The active project pointer row is seeded empty.
	var projectID sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT project_id FROM active_project WHERE singleton = 1").Scan(&projectID); err != nil {
		t.Fatalf("query active_project: %v", err)
	}
	if projectID.Valid {
		t.Fatalf("expected NULL active project, got %q", projectID.String)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	// Run migrations twice; second run should be a no-op.
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	applied, err := migrations.Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(applied) != 4 {
		t.Fatalf("expected 4 migration records, got %d (%v)", len(applied), applied)
	}
	if applied[0] != "001_user_profile.sql" {
		t.Fatalf("expected migrations in filename order, got %v", applied)
	}
}

func TestRunFSAppliesOnlyPending(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER PRIMARY KEY);")},
		"notes.txt": {Data: []byte("ignored")},
	}
	ran, err := migrations.RunFS(ctx, db, fsys)
	if err != nil {
		t.Fatalf("RunFS: %v", err)
	}
	if len(ran) != 1 || ran[0] != "001_a.sql" {
		t.Fatalf("expected [001_a.sql], got %v", ran)
	}

	fsys["002_b.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE b (id INTEGER PRIMARY KEY);")}
	ran, err = migrations.RunFS(ctx, db, fsys)
	if err != nil {
		t.Fatalf("second RunFS: %v", err)
	}
	if len(ran) != 1 || ran[0] != "002_b.sql" {
		t.Fatalf("expected [002_b.sql], got %v", ran)
	}
}

func TestRunFSRollsBackFailedMigration(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"001_bad.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); THIS IS NOT SQL;")},
	}
	if _, err := migrations.RunFS(ctx, db, fsys); err == nil {
		t.Fatal("expected error for invalid migration")
	}

	applied, err := migrations.Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected no recorded migrations, got %v", applied)
	}
}
