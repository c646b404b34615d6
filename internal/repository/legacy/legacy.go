// Package legacy reads the flat key-value store that held onboarding state
// before structured records existed.
//
// The store is a badger directory of string keys, one per preference, with
// values written as plain text. This package never writes to it: the only
// sanctioned way out of the legacy format is the profile migration.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/msomdec/stitch-flow/internal/domain"
)

// Keys used by the legacy preferences store.
const (
	KeyHasCompletedOnboarding = "hasCompletedOnboarding"
	KeyUserName               = "userName"
	KeyUserEmail              = "userEmail"
	KeyCraftType              = "selectedCraft"
	KeySkillLevel             = "skillLevel"
	KeyHabitFrequency         = "habitFrequency"
	KeyGoal                   = "goal"
	KeyStruggles              = "struggles"
	KeyIsPro                  = "isPro"
)

// Config holds configuration for opening a legacy store.
type Config struct {
	// Path is the badger directory. A missing directory means the
	// installation never used the legacy format.
	Path string

	// Logger receives badger's internal logging. Nil disables it.
	Logger *slog.Logger
}

// Store is a read-only domain.LegacyStore backed by badger.
type Store struct {
	db *badger.DB
}

// Open opens the legacy store at cfg.Path in read-only mode. When the
// directory does not exist it returns Empty, which reports a fresh
// installation.
func Open(cfg Config) (domain.LegacyStore, func() error, error) {
	if cfg.Path == "" {
		return Empty{}, func() error { return nil }, nil
	}
	if _, err := os.Stat(cfg.Path); errors.Is(err, os.ErrNotExist) {
		return Empty{}, func() error { return nil }, nil
	}

	opts := badger.DefaultOptions(cfg.Path).WithReadOnly(true)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open legacy store: %w", domain.ErrStorageUnavailable, err)
	}
	return NewStore(db), db.Close, nil
}

// NewStore wraps an already opened badger database. The caller keeps
// ownership of db.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HasCompletedOnboarding(ctx context.Context) (bool, error) {
	values, err := s.read(ctx, KeyHasCompletedOnboarding)
	if err != nil {
		return false, err
	}
	return parseBool(values[KeyHasCompletedOnboarding]), nil
}

func (s *Store) ReadOnboardingFields(ctx context.Context) (domain.UserProfile, error) {
	values, err := s.read(ctx,
		KeyHasCompletedOnboarding, KeyUserName, KeyUserEmail, KeyCraftType,
		KeySkillLevel, KeyHabitFrequency, KeyGoal, KeyStruggles, KeyIsPro)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return domain.UserProfile{
		Name:                   values[KeyUserName],
		Email:                  values[KeyUserEmail],
		CraftType:              values[KeyCraftType],
		SkillLevel:             values[KeySkillLevel],
		HabitFrequency:         values[KeyHabitFrequency],
		Goal:                   values[KeyGoal],
		Struggles:              parseStruggles(values[KeyStruggles]),
		IsPro:                  parseBool(values[KeyIsPro]),
		HasCompletedOnboarding: parseBool(values[KeyHasCompletedOnboarding]),
	}, nil
}

// read loads the given keys in one read transaction. Missing keys are
// absent from the result.
func (s *Store) read(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", key, err)
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			values[key] = strings.TrimSpace(string(v))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read legacy store: %w", domain.ErrStorageUnavailable, err)
	}
	return values, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// parseStruggles accepts either a JSON array or a comma separated list.
func parseStruggles(v string) []string {
	if v == "" {
		return nil
	}
	var tags []string
	if strings.HasPrefix(v, "[") {
		if err := json.Unmarshal([]byte(v), &tags); err == nil {
			return domain.NormalizeStruggles(tags)
		}
	}
	return domain.NormalizeStruggles(strings.Split(v, ","))
}

// Empty is the legacy store of an installation that never had one.
type Empty struct{}

func (Empty) HasCompletedOnboarding(context.Context) (bool, error) { return false, nil }

func (Empty) ReadOnboardingFields(context.Context) (domain.UserProfile, error) {
	return domain.UserProfile{}, nil
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
