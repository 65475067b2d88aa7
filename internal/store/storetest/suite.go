// Package storetest is a behavioral contract suite shared by every
// store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/store"
)

// Run exercises the store contract. makeStore must return a clean, isolated
// store; it is called once per subtest.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, makeStore(t)) })
	t.Run("TaleCRUD", func(t *testing.T) { testTaleCRUD(t, makeStore(t)) })
	t.Run("ListTales", func(t *testing.T) { testListTales(t, makeStore(t)) })
	t.Run("LikeTransitions", func(t *testing.T) { testLikeTransitions(t, makeStore(t)) })
	t.Run("GuardSeesTransactionState", func(t *testing.T) { testGuard(t, makeStore(t)) })
	t.Run("DeleteCascadesLikes", func(t *testing.T) { testDeleteCascade(t, makeStore(t)) })
	t.Run("UpdatePreservesLikes", func(t *testing.T) { testUpdatePreservesLikes(t, makeStore(t)) })
	t.Run("ConcurrentLikesSamePair", func(t *testing.T) { testConcurrentSamePair(t, makeStore(t)) })
	t.Run("ConcurrentLikesManyUsers", func(t *testing.T) { testConcurrentManyUsers(t, makeStore(t)) })
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewUser builds a user with deterministic fields.
func NewUser(id string) *domain.User {
	u := &domain.User{
		ID:           id,
		Name:         "Name " + id,
		Email:        id + "@example.test",
		PasswordHash: "$argon2id$fake",
	}
	u.CreatedAt = epoch
	u.UpdatedAt = epoch
	return u
}

// NewTale builds a tale created minutes after a fixed epoch.
func NewTale(id, authorID string, public bool, minutes int) *domain.Tale {
	t := &domain.Tale{
		ID:         id,
		Title:      "Title " + id,
		Content:    "Once upon a time.",
		AgeRange:   domain.AgeRange6to8,
		Topic:      "friendship",
		IsPublic:   public,
		AuthorID:   authorID,
		AuthorName: "Name " + authorID,
	}
	t.CreatedAt = epoch.Add(time.Duration(minutes) * time.Minute)
	t.UpdatedAt = t.CreatedAt
	return t
}

func seed(t *testing.T, s store.Store, users []*domain.User, tales []*domain.Tale) {
	t.Helper()
	ctx := context.Background()
	for _, u := range users {
		require.NoError(t, s.CreateUser(ctx, u))
	}
	for _, tale := range tales {
		require.NoError(t, s.CreateTale(ctx, tale))
	}
}

func like(userID, taleID string) store.LikeTransition {
	return store.LikeTransition{UserID: userID, TaleID: taleID, Kind: store.LikeAdd}
}

func unlike(userID, taleID string) store.LikeTransition {
	return store.LikeTransition{UserID: userID, TaleID: taleID, Kind: store.LikeRemove}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("user-1")
	u.Email = "Alice@Example.com"
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	byEmail, err := s.GetUserByEmail(ctx, "  alice@EXAMPLE.com ")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)

	dup := NewUser("user-2")
	dup.Email = "alice@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrAlreadyExists)

	_, err = s.GetUser(ctx, "user-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTaleCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	tale := NewTale("tale-1", "user-1", false, 0)
	seed(t, s, []*domain.User{NewUser("user-1")}, []*domain.Tale{tale})

	assert.ErrorIs(t, s.CreateTale(ctx, NewTale("tale-1", "user-1", true, 1)), store.ErrAlreadyExists)

	got, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Equal(t, tale.Title, got.Title)
	assert.Equal(t, tale.Content, got.Content)
	assert.Equal(t, tale.AgeRange, got.AgeRange)
	assert.Equal(t, tale.Topic, got.Topic)
	assert.Equal(t, tale.AuthorID, got.AuthorID)
	assert.Equal(t, tale.AuthorName, got.AuthorName)
	assert.False(t, got.IsPublic)
	assert.Zero(t, got.Likes)
	assert.True(t, tale.CreatedAt.Equal(got.CreatedAt))

	got.Title = "Renamed"
	got.IsPublic = true
	require.NoError(t, s.UpdateTale(ctx, got))

	got, err = s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.True(t, got.IsPublic)

	assert.ErrorIs(t, s.UpdateTale(ctx, NewTale("tale-missing", "user-1", true, 0)), store.ErrNotFound)

	require.NoError(t, s.DeleteTale(ctx, "tale-1"))
	_, err = s.GetTale(ctx, "tale-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTale(ctx, "tale-1"), store.ErrNotFound)
}

func taleIDs(tales []*domain.Tale) []string {
	out := make([]string, len(tales))
	for i, t := range tales {
		out[i] = t.ID
	}
	return out
}

func testListTales(t *testing.T, s store.Store) {
	ctx := context.Background()

	young := NewTale("tale-a", "user-1", true, 1)
	young.AgeRange = domain.AgeRange3to5
	seed(t, s,
		[]*domain.User{NewUser("user-1"), NewUser("user-2"), NewUser("user-3")},
		[]*domain.Tale{
			young,
			NewTale("tale-b", "user-1", false, 2),
			NewTale("tale-c", "user-2", true, 3),
			NewTale("tale-d", "user-2", true, 4),
		},
	)
	for _, tr := range []store.LikeTransition{like("user-1", "tale-c"), like("user-3", "tale-c"), like("user-3", "tale-a")} {
		_, err := s.ApplyLikeTransition(ctx, tr)
		require.NoError(t, err)
	}

	public := true
	private := false

	tests := []struct {
		name      string
		filter    store.TaleFilter
		sort      domain.TaleSort
		page      store.Page
		wantIDs   []string
		wantTotal int
	}{
		{"all newest", store.TaleFilter{}, domain.SortNewest, store.Page{}, []string{"tale-d", "tale-c", "tale-b", "tale-a"}, 4},
		{"public newest", store.TaleFilter{IsPublic: &public}, domain.SortNewest, store.Page{}, []string{"tale-d", "tale-c", "tale-a"}, 3},
		{"public oldest", store.TaleFilter{IsPublic: &public}, domain.SortOldest, store.Page{}, []string{"tale-a", "tale-c", "tale-d"}, 3},
		{"public most liked", store.TaleFilter{IsPublic: &public}, domain.SortMostLiked, store.Page{}, []string{"tale-c", "tale-a", "tale-d"}, 3},
		{"public by age", store.TaleFilter{IsPublic: &public, AgeRange: domain.AgeRange6to8}, domain.SortNewest, store.Page{}, []string{"tale-d", "tale-c"}, 2},
		{"author", store.TaleFilter{AuthorID: "user-1"}, domain.SortNewest, store.Page{}, []string{"tale-b", "tale-a"}, 2},
		{"author private", store.TaleFilter{AuthorID: "user-1", IsPublic: &private}, domain.SortNewest, store.Page{}, []string{"tale-b"}, 1},
		{"paged", store.TaleFilter{}, domain.SortOldest, store.Page{Offset: 1, Limit: 2}, []string{"tale-b", "tale-c"}, 4},
		{"past end", store.TaleFilter{}, domain.SortOldest, store.Page{Offset: 10, Limit: 2}, []string{}, 4},
		{"no match", store.TaleFilter{AuthorID: "user-3"}, domain.SortNewest, store.Page{}, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tales, total, err := s.ListTales(ctx, tt.filter, tt.sort, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, taleIDs(tales))
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func testLikeTransitions(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s,
		[]*domain.User{NewUser("user-1"), NewUser("user-2")},
		[]*domain.Tale{NewTale("tale-1", "user-1", true, 0)},
	)

	liked, err := s.IsLiked(ctx, "user-2", "tale-1")
	require.NoError(t, err)
	assert.False(t, liked)

	tale, err := s.ApplyLikeTransition(ctx, like("user-2", "tale-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, tale.Likes)

	liked, err = s.IsLiked(ctx, "user-2", "tale-1")
	require.NoError(t, err)
	assert.True(t, liked)

	ids, err := s.LikedTaleIDs(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"tale-1"}, ids)

	_, err = s.ApplyLikeTransition(ctx, like("user-2", "tale-1"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	stored, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Likes, "rejected like must not mutate")

	tale, err = s.ApplyLikeTransition(ctx, unlike("user-2", "tale-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, tale.Likes)

	_, err = s.ApplyLikeTransition(ctx, unlike("user-2", "tale-1"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	ids, err = s.LikedTaleIDs(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = s.ApplyLikeTransition(ctx, like("user-2", "tale-missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGuard(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s,
		[]*domain.User{NewUser("user-1"), NewUser("user-2")},
		[]*domain.Tale{NewTale("tale-1", "user-1", true, 0)},
	)

	errRejected := errors.New("rejected")
	var seen []bool
	tr := like("user-2", "tale-1")
	tr.Guard = func(tale *domain.Tale, liked bool) error {
		seen = append(seen, liked)
		assert.Equal(t, "tale-1", tale.ID)
		return errRejected
	}

	_, err := s.ApplyLikeTransition(ctx, tr)
	assert.ErrorIs(t, err, errRejected)

	stored, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Zero(t, stored.Likes)
	liked, err := s.IsLiked(ctx, "user-2", "tale-1")
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = s.ApplyLikeTransition(ctx, like("user-2", "tale-1"))
	require.NoError(t, err)

	tr.Guard = func(_ *domain.Tale, liked bool) error {
		seen = append(seen, liked)
		return nil
	}
	tr.Kind = store.LikeRemove
	_, err = s.ApplyLikeTransition(ctx, tr)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, seen)
}

func testDeleteCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s,
		[]*domain.User{NewUser("user-1"), NewUser("user-2")},
		[]*domain.Tale{NewTale("tale-1", "user-1", true, 0), NewTale("tale-2", "user-1", true, 1)},
	)
	for _, tr := range []store.LikeTransition{like("user-2", "tale-1"), like("user-2", "tale-2")} {
		_, err := s.ApplyLikeTransition(ctx, tr)
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteTale(ctx, "tale-1"))

	ids, err := s.LikedTaleIDs(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"tale-2"}, ids)

	liked, err := s.IsLiked(ctx, "user-2", "tale-1")
	require.NoError(t, err)
	assert.False(t, liked)
}

func testUpdatePreservesLikes(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s,
		[]*domain.User{NewUser("user-1"), NewUser("user-2")},
		[]*domain.Tale{NewTale("tale-1", "user-1", true, 0)},
	)

	stale, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)

	_, err = s.ApplyLikeTransition(ctx, like("user-2", "tale-1"))
	require.NoError(t, err)

	stale.IsPublic = false
	require.NoError(t, s.UpdateTale(ctx, stale))
	assert.Equal(t, 1, stale.Likes)

	got, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.False(t, got.IsPublic)
	assert.Equal(t, 1, got.Likes)
}

func testConcurrentSamePair(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s,
		[]*domain.User{NewUser("user-1"), NewUser("user-2")},
		[]*domain.Tale{NewTale("tale-1", "user-1", true, 0)},
	)

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		rejected  atomic.Int32
	)
	for range workers {
		wg.Go(func() {
			_, err := s.ApplyLikeTransition(ctx, like("user-2", "tale-1"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, store.ErrAlreadyExists):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())

	got, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}

func testConcurrentManyUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	const users = 12

	all := []*domain.User{NewUser("user-author")}
	for i := range users {
		all = append(all, NewUser(fmt.Sprintf("user-%02d", i)))
	}
	seed(t, s, all, []*domain.Tale{NewTale("tale-1", "user-author", true, 0)})

	var wg sync.WaitGroup
	for i := range users {
		wg.Go(func() {
			userID := fmt.Sprintf("user-%02d", i)
			_, err := s.ApplyLikeTransition(ctx, like(userID, "tale-1"))
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	got, err := s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Equal(t, users, got.Likes)

	for i := range users {
		wg.Go(func() {
			userID := fmt.Sprintf("user-%02d", i)
			_, err := s.ApplyLikeTransition(ctx, unlike(userID, "tale-1"))
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	got, err = s.GetTale(ctx, "tale-1")
	require.NoError(t, err)
	assert.Zero(t, got.Likes)
}
