package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/store"
	"github.com/talesmith/talesmith-server/internal/store/badgerstore"
	"github.com/talesmith/talesmith-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
	Backend string
	Path    string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured persistence backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	handle, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", handle.Backend, "path", handle.Path)
	return handle, nil
}

// OpenStore opens the backend named by cfg.Store.Backend under the data directory.
func OpenStore(cfg *config.Config, log *logger.Logger) (*StoreHandle, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		path := filepath.Join(cfg.Data.BasePath, "talesmith.db")
		db, err := sqlite.Open(path, log.Logger)
		if err != nil {
			return nil, err
		}
		return &StoreHandle{Store: db, Backend: config.BackendSQLite, Path: path}, nil

	case config.BackendBadger, "":
		path := filepath.Join(cfg.Data.BasePath, "db")
		db, err := badgerstore.New(path, log.Logger, badgerstore.Options{})
		if err != nil {
			return nil, err
		}
		return &StoreHandle{Store: db, Backend: config.BackendBadger, Path: path}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
