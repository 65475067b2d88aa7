package providers

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/search"
	"github.com/talesmith/talesmith-server/internal/store/storetest"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard})
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		backend  string
		wantPath string
	}{
		{config.BackendBadger, "db"},
		{config.BackendSQLite, "talesmith.db"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &config.Config{
				Data:  config.DataConfig{BasePath: dir},
				Store: config.StoreConfig{Backend: tt.backend},
			}

			handle, err := OpenStore(cfg, testLogger())
			require.NoError(t, err)
			defer handle.Shutdown()

			assert.Equal(t, tt.backend, handle.Backend)
			assert.Equal(t, filepath.Join(dir, tt.wantPath), handle.Path)

			require.NoError(t, handle.CreateUser(t.Context(), storetest.NewUser("user-1")))
			_, err = handle.GetUser(t.Context(), "user-1")
			assert.NoError(t, err)
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{
		Data:  config.DataConfig{BasePath: t.TempDir()},
		Store: config.StoreConfig{Backend: "postgres"},
	}

	_, err := OpenStore(cfg, testLogger())
	assert.ErrorContains(t, err, "postgres")
}

func TestSyncSearchIndex(t *testing.T) {
	dir := t.TempDir()
	log := testLogger()

	storeHandle, err := OpenStore(&config.Config{
		Data:  config.DataConfig{BasePath: dir},
		Store: config.StoreConfig{Backend: config.BackendBadger},
	}, log)
	require.NoError(t, err)
	defer storeHandle.Shutdown()

	index, err := search.NewTaleIndex(search.Options{DataPath: dir, Logger: log.Logger})
	require.NoError(t, err)
	indexHandle := &SearchIndexHandle{TaleIndex: index}
	defer indexHandle.Shutdown()

	ctx := t.Context()
	require.NoError(t, storeHandle.CreateUser(ctx, storetest.NewUser("author")))
	require.NoError(t, storeHandle.CreateTale(ctx, storetest.NewTale("tale-a", "author", true, 1)))
	require.NoError(t, storeHandle.CreateTale(ctx, storetest.NewTale("tale-b", "author", true, 2)))
	require.NoError(t, storeHandle.CreateTale(ctx, storetest.NewTale("tale-c", "author", false, 3)))

	// A document for a tale the store no longer knows about.
	require.NoError(t, index.IndexTale(storetest.NewTale("tale-gone", "author", true, 4)))

	injector := do.New()
	do.ProvideValue(injector, log)
	do.ProvideValue(injector, storeHandle)
	do.ProvideValue(injector, indexHandle)

	require.NoError(t, SyncSearchIndex(ctx, injector))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	res, err := index.Search(ctx, search.Params{Sort: search.SortMostLiked})
	require.NoError(t, err)
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{"tale-a", "tale-b"}, ids)

	require.NoError(t, SyncSearchIndex(ctx, injector))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
