package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/store"
)

// IsLiked reports whether userID currently likes taleID.
func (s *Store) IsLiked(ctx context.Context, userID, taleID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var liked bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		liked, err = edgeExists(txn, userID, taleID)
		return err
	})
	return liked, err
}

// LikedTaleIDs returns the IDs of every tale userID likes.
func (s *Store) LikedTaleIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := likesOfUserPrefix(userID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// ApplyLikeTransition adds or removes the (user, tale) edge and adjusts the
// tale's counter in a single transaction. The guard sees the state read in
// that transaction. Conflicts with concurrent transitions on the same tale
// are retried.
func (s *Store) ApplyLikeTransition(ctx context.Context, tr store.LikeTransition) (*domain.Tale, error) {
	var result *domain.Tale

	err := s.updateWithRetry(ctx, func(txn *badger.Txn) error {
		tale, err := s.Tales.getTxn(txn, tr.TaleID)
		if err != nil {
			return err
		}
		liked, err := edgeExists(txn, tr.UserID, tr.TaleID)
		if err != nil {
			return err
		}

		if tr.Guard != nil {
			if err := tr.Guard(tale, liked); err != nil {
				return err
			}
		}

		before := *tale
		switch tr.Kind {
		case store.LikeAdd:
			if liked {
				return store.ErrAlreadyExists.WithMessage("like already recorded")
			}
			stamp := []byte(time.Now().UTC().Format(time.RFC3339Nano))
			if err := txn.Set(likeUserKey(tr.UserID, tr.TaleID), stamp); err != nil {
				return fmt.Errorf("set like edge: %w", err)
			}
			if err := txn.Set(likeTaleKey(tr.TaleID, tr.UserID), stamp); err != nil {
				return fmt.Errorf("set like edge: %w", err)
			}
			tale.Likes++

		case store.LikeRemove:
			if !liked {
				return store.ErrNotFound.WithMessage("like not found")
			}
			if err := txn.Delete(likeUserKey(tr.UserID, tr.TaleID)); err != nil {
				return fmt.Errorf("delete like edge: %w", err)
			}
			if err := txn.Delete(likeTaleKey(tr.TaleID, tr.UserID)); err != nil {
				return fmt.Errorf("delete like edge: %w", err)
			}
			tale.Likes = max(tale.Likes-1, 0)

		default:
			return fmt.Errorf("unknown like transition %d", tr.Kind)
		}

		if err := s.Tales.putTxn(txn, tale.ID, &before, tale); err != nil {
			return err
		}
		result = tale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func edgeExists(txn *badger.Txn, userID, taleID string) (bool, error) {
	_, err := txn.Get(likeUserKey(userID, taleID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
