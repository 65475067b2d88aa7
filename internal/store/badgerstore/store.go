// Package badgerstore implements store.Store on Badger.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/store"
)

// defaultConflictRetries bounds how often a conflicting engagement
// transaction is replayed before giving up.
const defaultConflictRetries = 16

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	conflictRetries int

	Users *Entity[domain.User]
	Tales *Entity[domain.Tale]
}

var _ store.Store = (*Store)(nil)

// Options configures a Badger store.
type Options struct {
	// InMemory keeps all data in memory; Path is ignored. Used by tests.
	InMemory bool
	// ConflictRetries overrides the engagement transaction retry bound.
	ConflictRetries int
}

// New opens a Badger store at path.
func New(path string, logger *slog.Logger, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // Sync writes so a crash cannot lose a committed like
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:              db,
		logger:          logger,
		conflictRetries: defaultConflictRetries,
	}
	if opts.ConflictRetries > 0 {
		s.conflictRetries = opts.ConflictRetries
	}

	s.Users = NewEntity[domain.User](s, userPrefix).
		WithIndexTransform("email",
			func(u *domain.User) []string { return []string{domain.NormalizeEmail(u.Email)} },
			domain.NormalizeEmail,
		)

	s.Tales = NewEntity[domain.Tale](s, talePrefix).
		WithLookup("author", func(t *domain.Tale) []string { return []string{t.AuthorID} }).
		WithLookup("visibility", func(t *domain.Tale) []string { return []string{visibilityKey(t.IsPublic)} })

	logger.Info("Badger database opened successfully", "path", path, "in_memory", opts.InMemory)
	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// updateWithRetry runs fn in a read-write transaction, replaying it when
// Badger reports a conflict with a concurrently committed transaction.
func (s *Store) updateWithRetry(ctx context.Context, fn func(txn *badger.Txn) error) error {
	backoff := time.Millisecond
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt >= s.conflictRetries {
			return store.ErrTooManyConflicts.WithCause(err)
		}

		s.logger.Debug("retrying conflicting transaction", "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 50*time.Millisecond)
	}
}

func visibilityKey(public bool) string {
	if public {
		return string(domain.VisibilityPublic)
	}
	return string(domain.VisibilityPrivate)
}
