package store

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talesmith/talesmith-server/internal/domain"
)

func taleAt(id string, minutes, likes int) *domain.Tale {
	t := &domain.Tale{ID: id, Likes: likes}
	t.CreatedAt = time.Date(2024, 1, 1, 0, minutes, 0, 0, time.UTC)
	return t
}

func ids(tales []*domain.Tale) []string {
	out := make([]string, len(tales))
	for i, t := range tales {
		out[i] = t.ID
	}
	return out
}

func TestCompareTales(t *testing.T) {
	base := []*domain.Tale{
		taleAt("a", 1, 5),
		taleAt("b", 3, 1),
		taleAt("c", 2, 5),
		taleAt("d", 2, 0),
	}

	tests := []struct {
		sort domain.TaleSort
		want []string
	}{
		{domain.SortNewest, []string{"b", "d", "c", "a"}},
		{domain.SortOldest, []string{"a", "c", "d", "b"}},
		{domain.SortMostLiked, []string{"c", "a", "b", "d"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			tales := slices.Clone(base)
			slices.SortStableFunc(tales, CompareTales(tt.sort))
			assert.Equal(t, tt.want, ids(tales))
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, items, Paginate(items, Page{}))
	assert.Equal(t, []int{1, 2}, Paginate(items, Page{Limit: 2}))
	assert.Equal(t, []int{3, 4}, Paginate(items, Page{Offset: 2, Limit: 2}))
	assert.Equal(t, []int{5}, Paginate(items, Page{Offset: 4, Limit: 2}))
	assert.Empty(t, Paginate(items, Page{Offset: 9}))
}

func TestTaleFilter_Matches(t *testing.T) {
	pub := true
	tale := &domain.Tale{AuthorID: "u1", IsPublic: true, AgeRange: domain.AgeRange6to8}

	assert.True(t, TaleFilter{}.Matches(tale))
	assert.True(t, TaleFilter{AuthorID: "u1", IsPublic: &pub, AgeRange: domain.AgeRange6to8}.Matches(tale))
	assert.False(t, TaleFilter{AuthorID: "u2"}.Matches(tale))
	assert.False(t, TaleFilter{AgeRange: domain.AgeRange3to5}.Matches(tale))

	priv := false
	assert.False(t, TaleFilter{IsPublic: &priv}.Matches(tale))
}

func TestError_IsByCode(t *testing.T) {
	assert.ErrorIs(t, ErrNotFound.WithMessage("tale missing"), ErrNotFound)
	assert.NotErrorIs(t, ErrNotFound, ErrAlreadyExists)
}
