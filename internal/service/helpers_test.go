package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/engagement"
	"github.com/talesmith/talesmith-server/internal/search"
	"github.com/talesmith/talesmith-server/internal/store"
	"github.com/talesmith/talesmith-server/internal/store/badgerstore"
	"github.com/talesmith/talesmith-server/internal/store/storetest"
	"github.com/talesmith/talesmith-server/internal/validation"
)

var (
	author = &auth.Principal{ID: "user-author"}
	reader = &auth.Principal{ID: "user-reader"}
)

func present(p *auth.Principal) auth.Resolution {
	return auth.Resolution{State: auth.Present, Principal: p}
}

var invalid = auth.Resolution{State: auth.Invalid}

type testEnv struct {
	store  store.Store
	index  *search.TaleIndex
	tales  *TaleService
	auth   *AuthService
	tokens *auth.TokenService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	s, err := badgerstore.New("", logger, badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.NewTaleIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenServiceFromKey(bytes.Repeat([]byte{7}, 32), time.Hour)
	require.NoError(t, err)

	v := validation.New()
	ledger := engagement.NewLedger(s, index, logger)

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, storetest.NewUser(author.ID)))
	require.NoError(t, s.CreateUser(ctx, storetest.NewUser(reader.ID)))

	return &testEnv{
		store:  s,
		index:  index,
		tales:  NewTaleService(s, ledger, index, v, logger),
		auth:   NewAuthService(s, tokens, v, logger),
		tokens: tokens,
	}
}

// seedTale stores a tale directly and indexes it.
func (e *testEnv) seedTale(t *testing.T, tale *domain.Tale) *domain.Tale {
	t.Helper()
	require.NoError(t, e.store.CreateTale(context.Background(), tale))
	require.NoError(t, e.index.IndexTale(tale))
	return tale
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
