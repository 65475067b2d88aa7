package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/talesmith/talesmith-server/internal/domain"
)

// TaleIndex wraps a Bleve index of public tales.
//
// All methods are safe for concurrent use. The mutex guards the index handle
// across Rebuild.
type TaleIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage; empty keeps the index in memory
	Logger   *slog.Logger // Uses discard if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes, forcing a
// rebuild of indexes created with an older mapping.
const mappingVersion = "1"

const batchSize = 500

// NewTaleIndex creates or opens a tale index.
// An index that cannot be opened or was built with an outdated mapping is
// removed and recreated empty; callers repopulate it with IndexTales.
func NewTaleIndex(opts Options) (*TaleIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &TaleIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "tales.bleve")
	versionPath := filepath.Join(opts.DataPath, "tales.version")

	var index bleve.Index
	needsRebuild := false

	if _, statErr := os.Stat(indexPath); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, rebuilding", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		default:
			var err error
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open existing index, recreating", "path", indexPath, "error", err)
				needsRebuild = true
			}
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &TaleIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index.
func (s *TaleIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexTale adds or replaces a tale. Private tales are removed instead, so the
// index only ever answers with public tales.
func (s *TaleIndex) IndexTale(t *domain.Tale) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !t.IsPublic {
		return s.index.Delete(t.ID)
	}
	return s.index.Index(t.ID, NewTaleDocument(t).ToMap())
}

// IndexTales indexes tales in batches. Private tales are skipped.
func (s *TaleIndex) IndexTales(tales []*domain.Tale) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(tales); i += batchSize {
		end := min(i+batchSize, len(tales))

		batch := s.index.NewBatch()
		for _, t := range tales[i:end] {
			if !t.IsPublic {
				continue
			}
			if err := batch.Index(t.ID, NewTaleDocument(t).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", t.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// RemoveTale removes a tale from the index. Removing an unknown ID is a no-op.
func (s *TaleIndex) RemoveTale(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// UpdateLikes rewrites the like count of an indexed tale from its stored
// fields. Tales that are not indexed are ignored.
func (s *TaleIndex) UpdateLikes(ctx context.Context, taleID string, likes int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{taleID}), 1, 0, false)
	req.Fields = []string{"*"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return fmt.Errorf("load %s: %w", taleID, err)
	}
	if len(res.Hits) == 0 {
		return nil
	}

	doc := documentFromFields(taleID, res.Hits[0].Fields)
	doc.Likes = likes
	return s.index.Index(taleID, doc.ToMap())
}

// DocumentCount returns the number of indexed tales.
func (s *TaleIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and starts from an empty index.
// It blocks all other operations until done.
func (s *TaleIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
