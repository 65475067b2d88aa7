package store

import (
	"cmp"

	"github.com/talesmith/talesmith-server/internal/domain"
)

// CompareTales returns the ordering for sort. Ties break on ID so that
// paging is stable.
func CompareTales(sort domain.TaleSort) func(a, b *domain.Tale) int {
	switch sort {
	case domain.SortOldest:
		return func(a, b *domain.Tale) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		}
	case domain.SortMostLiked:
		return func(a, b *domain.Tale) int {
			if c := cmp.Compare(b.Likes, a.Likes); c != 0 {
				return c
			}
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		}
	default:
		return func(a, b *domain.Tale) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		}
	}
}

// Paginate returns the window of items selected by page.
func Paginate[T any](items []T, page Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[max(page.Offset, 0):]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
