package domain

import "context"

// Database defines lifecycle operations for the underlying record store.
// Each implementation owns its own schema migrations, keeping the backend
// swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
