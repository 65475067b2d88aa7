package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/search"
	"github.com/talesmith/talesmith-server/internal/store"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.TaleIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve index of public tales.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewTaleIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{TaleIndex: index}, nil
}

// SyncSearchIndex rebuilds the index from the store when the number of
// indexed tales disagrees with the number of public tales.
func SyncSearchIndex(ctx context.Context, i do.Injector) error {
	index := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	public := true
	tales, total, err := storeHandle.ListTales(ctx, store.TaleFilter{IsPublic: &public}, domain.SortNewest, store.Page{})
	if err != nil {
		return err
	}

	docCount, err := index.DocumentCount()
	if err == nil && docCount == uint64(total) {
		return nil
	}

	log.Info("Search index out of step with store, rebuilding",
		"documents", docCount,
		"public_tales", total,
	)
	if err := index.Rebuild(); err != nil {
		return err
	}
	if err := index.IndexTales(tales); err != nil {
		return err
	}

	docCount, _ = index.DocumentCount()
	log.Info("Search index rebuilt", "documents", docCount)
	return nil
}
