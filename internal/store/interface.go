// Package store defines the persistence interface for the Talesmith server.
// Implementations live in badgerstore and sqlite.
package store

import (
	"context"

	"github.com/talesmith/talesmith-server/internal/domain"
)

// Store defines every persistence operation the services rely on.
type Store interface {
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Tales
	CreateTale(ctx context.Context, tale *domain.Tale) error
	GetTale(ctx context.Context, id string) (*domain.Tale, error)
	ListTales(ctx context.Context, filter TaleFilter, sort domain.TaleSort, page Page) ([]*domain.Tale, int, error)
	UpdateTale(ctx context.Context, tale *domain.Tale) error
	// DeleteTale removes the tale and every like edge pointing at it in one transaction.
	DeleteTale(ctx context.Context, id string) error

	// Engagement
	IsLiked(ctx context.Context, userID, taleID string) (bool, error)
	LikedTaleIDs(ctx context.Context, userID string) ([]string, error)
	ApplyLikeTransition(ctx context.Context, tr LikeTransition) (*domain.Tale, error)
}

// TaleFilter narrows ListTales. Zero values match everything.
type TaleFilter struct {
	AuthorID string
	IsPublic *bool
	AgeRange domain.AgeRange
}

// Matches reports whether tale satisfies the filter.
func (f TaleFilter) Matches(tale *domain.Tale) bool {
	if f.AuthorID != "" && tale.AuthorID != f.AuthorID {
		return false
	}
	if f.IsPublic != nil && tale.IsPublic != *f.IsPublic {
		return false
	}
	if f.AgeRange != "" && tale.AgeRange != f.AgeRange {
		return false
	}
	return true
}

// Page selects a window of a listing. Limit 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// LikeKind is the direction of a like transition.
type LikeKind int

// Like transitions.
const (
	LikeAdd LikeKind = iota
	LikeRemove
)

// LikeTransition is one like or unlike, applied atomically by the store.
//
// Guard, when set, runs inside the transaction against the tale and the
// current edge state. A non-nil return aborts the transaction and is returned
// unchanged from ApplyLikeTransition. Guard may run more than once when the
// store retries a conflicting transaction.
type LikeTransition struct {
	UserID string
	TaleID string
	Kind   LikeKind
	Guard  func(tale *domain.Tale, liked bool) error
}
