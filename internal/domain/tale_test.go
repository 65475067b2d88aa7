package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgeRange_Valid(t *testing.T) {
	for _, a := range AgeRanges {
		assert.True(t, a.Valid(), string(a))
	}
	assert.False(t, AgeRange("13-15").Valid())
	assert.False(t, AgeRange("").Valid())
}

func TestTalePatch_Apply(t *testing.T) {
	tale := &Tale{Title: "Old", Content: "Once", IsPublic: false}
	tale.InitTimestamps()
	created := tale.UpdatedAt

	title := "New"
	public := true
	patch := TalePatch{Title: &title, IsPublic: &public}
	assert.False(t, patch.IsEmpty())

	patch.Apply(tale)

	assert.Equal(t, "New", tale.Title)
	assert.Equal(t, "Once", tale.Content)
	assert.True(t, tale.IsPublic)
	assert.False(t, tale.UpdatedAt.Before(created))
}

func TestTalePatch_IsEmpty(t *testing.T) {
	assert.True(t, TalePatch{}.IsEmpty())
}

func TestVisibility_IsPublicFilter(t *testing.T) {
	assert.Nil(t, VisibilityAll.IsPublicFilter())
	assert.Nil(t, Visibility("bogus").IsPublicFilter())

	pub := VisibilityPublic.IsPublicFilter()
	if assert.NotNil(t, pub) {
		assert.True(t, *pub)
	}
	priv := VisibilityPrivate.IsPublicFilter()
	if assert.NotNil(t, priv) {
		assert.False(t, *priv)
	}
}

func TestParseTaleSort(t *testing.T) {
	assert.Equal(t, SortNewest, ParseTaleSort(""))
	assert.Equal(t, SortNewest, ParseTaleSort("random"))
	assert.Equal(t, SortOldest, ParseTaleSort("oldest"))
	assert.Equal(t, SortMostLiked, ParseTaleSort("mostLiked"))
}

func TestTale_IsAuthoredBy(t *testing.T) {
	tale := &Tale{AuthorID: "user-1"}
	assert.True(t, tale.IsAuthoredBy("user-1"))
	assert.False(t, tale.IsAuthoredBy("user-2"))
	assert.False(t, tale.IsAuthoredBy(""))
}
