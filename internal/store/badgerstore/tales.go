package badgerstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/store"
)

// CreateTale stores a new tale.
func (s *Store) CreateTale(ctx context.Context, tale *domain.Tale) error {
	return s.Tales.Create(ctx, tale.ID, tale)
}

// GetTale retrieves a tale by ID.
func (s *Store) GetTale(ctx context.Context, id string) (*domain.Tale, error) {
	return s.Tales.Get(ctx, id)
}

// UpdateTale replaces a stored tale.
// The like counter is owned by ApplyLikeTransition and is preserved from the
// stored copy, so a concurrent like is never overwritten by a stale read.
func (s *Store) UpdateTale(ctx context.Context, tale *domain.Tale) error {
	return s.updateWithRetry(ctx, func(txn *badger.Txn) error {
		current, err := s.Tales.getTxn(txn, tale.ID)
		if err != nil {
			return err
		}
		tale.Likes = current.Likes
		return s.Tales.putTxn(txn, tale.ID, current, tale)
	})
}

// DeleteTale removes a tale together with every like edge pointing at it.
func (s *Store) DeleteTale(ctx context.Context, id string) error {
	return s.updateWithRetry(ctx, func(txn *badger.Txn) error {
		if _, err := s.Tales.getTxn(txn, id); err != nil {
			return err
		}

		var edges [][]byte
		prefix := likesOfTalePrefix(id)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			userID := string(it.Item().Key()[len(prefix):])
			edges = append(edges, it.Item().KeyCopy(nil), likeUserKey(userID, id))
		}
		it.Close()

		for _, key := range edges {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete like edge: %w", err)
			}
		}
		return s.Tales.deleteTxn(txn, id)
	})
}

// ListTales returns one page of tales matching filter in the given order,
// along with the total number of matches.
func (s *Store) ListTales(ctx context.Context, filter store.TaleFilter, sort domain.TaleSort, page store.Page) ([]*domain.Tale, int, error) {
	var (
		candidates []*domain.Tale
		err        error
	)
	switch {
	case filter.AuthorID != "":
		candidates, err = s.Tales.ListByLookup(ctx, "author", filter.AuthorID)
	case filter.IsPublic != nil:
		candidates, err = s.Tales.ListByLookup(ctx, "visibility", visibilityKey(*filter.IsPublic))
	default:
		for tale, iterErr := range s.Tales.List(ctx) {
			if iterErr != nil {
				return nil, 0, iterErr
			}
			candidates = append(candidates, tale)
		}
	}
	if err != nil {
		return nil, 0, err
	}

	matched := slices.DeleteFunc(candidates, func(t *domain.Tale) bool { return !filter.Matches(t) })
	slices.SortStableFunc(matched, store.CompareTales(sort))

	return store.Paginate(matched, page), len(matched), nil
}
