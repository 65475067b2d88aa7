// Package engagement applies like and unlike transitions between users and tales.
package engagement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/talesmith/talesmith-server/internal/access"
	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/domain"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
	"github.com/talesmith/talesmith-server/internal/store"
)

// LikeIndexer is notified of committed like count changes.
type LikeIndexer interface {
	UpdateLikes(ctx context.Context, taleID string, likes int) error
}

// Ledger owns the (user, tale) liked relation and each tale's like counter.
type Ledger struct {
	store   store.Store
	indexer LikeIndexer
	logger  *slog.Logger
	pairs   *keyedMutex
}

// NewLedger creates a ledger. indexer may be nil.
func NewLedger(s store.Store, indexer LikeIndexer, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:   s,
		indexer: indexer,
		logger:  logger,
		pairs:   newKeyedMutex(),
	}
}

// Like records that principal likes taleID and returns the new like count.
// The tale must be public and not already liked by principal.
func (l *Ledger) Like(ctx context.Context, principal *auth.Principal, taleID string) (int, error) {
	return l.apply(ctx, principal, taleID, access.Like, store.LikeAdd)
}

// Unlike removes principal's like of taleID and returns the new like count.
// Visibility is not checked.
func (l *Ledger) Unlike(ctx context.Context, principal *auth.Principal, taleID string) (int, error) {
	return l.apply(ctx, principal, taleID, access.Unlike, store.LikeRemove)
}

func (l *Ledger) apply(ctx context.Context, principal *auth.Principal, taleID string, op access.Operation, kind store.LikeKind) (int, error) {
	if principal == nil {
		return 0, domainerrors.ErrMissingCredential
	}

	release := l.pairs.Lock(principal.ID + "\x00" + taleID)
	defer release()

	tale, err := l.store.ApplyLikeTransition(ctx, store.LikeTransition{
		UserID: principal.ID,
		TaleID: taleID,
		Kind:   kind,
		Guard: func(t *domain.Tale, liked bool) error {
			return access.Decide(op, t, principal, liked)
		},
	})
	if err != nil {
		return 0, l.mapErr(err, op, taleID)
	}

	l.logger.Info("engagement transition committed",
		"op", op.String(),
		"tale_id", taleID,
		"user_id", principal.ID,
		"likes", tale.Likes,
	)

	if l.indexer != nil {
		if err := l.indexer.UpdateLikes(ctx, taleID, tale.Likes); err != nil {
			l.logger.Warn("failed to update like count in search index", "tale_id", taleID, "error", err)
		}
	}

	return tale.Likes, nil
}

func (l *Ledger) mapErr(err error, op access.Operation, taleID string) error {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("tale %s not found", taleID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	l.logger.Error("engagement transition failed", "op", op.String(), "tale_id", taleID, "error", err)
	return domainerrors.StoreFailure(err, "failed to record "+op.String())
}
