package badgerstore

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
	"github.com/talesmith/talesmith-server/internal/store"
)

// Entity provides generic JSON persistence for a domain type.
//
// Unique indexes map one value to one ID and reject duplicates. Lookups map a
// value to any number of IDs and are scanned by prefix. Both are written in the
// same transaction as the entity itself.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []index[T]
	lookups []index[T]
}

type index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a unique secondary index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

// WithIndexTransform adds a unique secondary index whose lookup values are
// transformed before use, enabling case-insensitive lookups.
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen, lookupTransform: lookupTransform})
	return e
}

// WithLookup adds a non-unique secondary index.
func (e *Entity[T]) WithLookup(name string, keyGen func(*T) []string) *Entity[T] {
	e.lookups = append(e.lookups, index[T]{name: name, keyGen: keyGen})
	return e
}

// Create stores a new entity under id.
// Returns store.ErrAlreadyExists if the id or a unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(e.key(id))
		if err == nil {
			return store.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		return e.putTxn(txn, id, nil, entity)
	})
}

// Get retrieves an entity by ID.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIndex retrieves an entity through a unique index.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(e.prefix, indexName, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entity, err = e.getTxn(txn, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Update replaces an existing entity and rewrites its index entries.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		old, err := e.getTxn(txn, id)
		if err != nil {
			return err
		}
		return e.putTxn(txn, id, old, entity)
	})
}

// Delete removes an entity and its index entries. Deleting a missing entity is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		return e.deleteTxn(txn, id)
	})
}

// List returns an iterator over all entities.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			idxPrefix := []byte(e.prefix + indexSegment)
			lkpPrefix := []byte(e.prefix + lookupSegment)

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}

				key := it.Item().Key()
				if bytes.HasPrefix(key, idxPrefix) || bytes.HasPrefix(key, lkpPrefix) {
					continue
				}

				var entity T
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				}); err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// ListByLookup returns the entities whose lookup index name contains value.
func (e *Entity[T]) ListByLookup(ctx context.Context, name, value string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		prefix := lookupPrefix(e.prefix, name, value)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := string(it.Item().Key()[len(prefix):])
			entity, err := e.getTxn(txn, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, entity)
		}
		return nil
	})
	return out, err
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

// putTxn writes entity and moves its index entries from old (nil on create).
func (e *Entity[T]) putTxn(txn *badger.Txn, id string, old, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	for _, idx := range e.indexes {
		previous := map[string]bool{}
		if old != nil {
			for _, v := range idx.keyGen(old) {
				previous[v] = true
			}
		}
		for _, v := range idx.keyGen(entity) {
			if previous[v] {
				delete(previous, v)
				continue
			}
			_, err := txn.Get(indexKey(e.prefix, idx.name, v))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, v, store.ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
			if err := txn.Set(indexKey(e.prefix, idx.name, v), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
		for v := range previous {
			if err := txn.Delete(indexKey(e.prefix, idx.name, v)); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
		}
	}

	for _, lkp := range e.lookups {
		if old != nil {
			for _, v := range lkp.keyGen(old) {
				if err := txn.Delete(lookupKey(e.prefix, lkp.name, v, id)); err != nil {
					return fmt.Errorf("failed to delete old lookup key: %w", err)
				}
			}
		}
		for _, v := range lkp.keyGen(entity) {
			if err := txn.Set(lookupKey(e.prefix, lkp.name, v, id), nil); err != nil {
				return fmt.Errorf("failed to set lookup key: %w", err)
			}
		}
	}

	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (e *Entity[T]) deleteTxn(txn *badger.Txn, id string) error {
	entity, err := e.getTxn(txn, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, idx := range e.indexes {
		for _, v := range idx.keyGen(entity) {
			if err := txn.Delete(indexKey(e.prefix, idx.name, v)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	for _, lkp := range e.lookups {
		for _, v := range lkp.keyGen(entity) {
			if err := txn.Delete(lookupKey(e.prefix, lkp.name, v, id)); err != nil {
				return fmt.Errorf("failed to delete lookup key: %w", err)
			}
		}
	}
	return txn.Delete(e.key(id))
}
