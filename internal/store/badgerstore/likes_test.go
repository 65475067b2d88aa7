package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesmith/talesmith-server/internal/store"
	"github.com/talesmith/talesmith-server/internal/store/storetest"
)

func TestUnlike_FloorsCorruptedCounter(t *testing.T) {
	s, err := New("", nil, Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.CreateTale(ctx, storetest.NewTale("tale-1", "user-1", true, 0)))
	_, err = s.ApplyLikeTransition(ctx, store.LikeTransition{UserID: "user-2", TaleID: "tale-1", Kind: store.LikeAdd})
	require.NoError(t, err)

	// Corrupt the counter behind the ledger's back.
	tale, err := s.Tales.Get(ctx, "tale-1")
	require.NoError(t, err)
	tale.Likes = 0
	require.NoError(t, s.Tales.Update(ctx, "tale-1", tale))

	tale, err = s.ApplyLikeTransition(ctx, store.LikeTransition{UserID: "user-2", TaleID: "tale-1", Kind: store.LikeRemove})
	require.NoError(t, err)
	assert.Zero(t, tale.Likes)
}
