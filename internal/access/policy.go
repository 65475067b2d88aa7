// Package access decides which operations a caller may perform on a tale.
package access

import (
	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/domain"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
)

// Operation is an action on a tale.
type Operation int

// Operations governed by the policy.
const (
	Read Operation = iota
	Update
	Delete
	Like
	Unlike
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Like:
		return "like"
	case Unlike:
		return "unlike"
	}
	return "unknown"
}

var (
	errPrivateTale   = domainerrors.AccessDenied("tale is private")
	errNotAuthor     = domainerrors.AccessDenied("only the author may modify this tale")
	errLikePrivate   = domainerrors.AccessDenied("cannot like a private tale")
	errUnknownAction = domainerrors.AccessDenied("unknown operation")
)

// Decide returns nil when principal may perform op on tale, or the typed
// error naming the rule that failed. liked is the principal's current
// membership for the tale and only matters for Like and Unlike.
// A nil principal is an anonymous caller.
func Decide(op Operation, tale *domain.Tale, principal *auth.Principal, liked bool) error {
	switch op {
	case Read:
		if tale.IsPublic {
			return nil
		}
		if principal != nil && tale.IsAuthoredBy(principal.ID) {
			return nil
		}
		return errPrivateTale

	case Update, Delete:
		if principal == nil {
			return domainerrors.ErrMissingCredential
		}
		if !tale.IsAuthoredBy(principal.ID) {
			return errNotAuthor
		}
		return nil

	case Like:
		if principal == nil {
			return domainerrors.ErrMissingCredential
		}
		if !tale.IsPublic {
			return errLikePrivate
		}
		if liked {
			return domainerrors.ErrAlreadyLiked
		}
		return nil

	case Unlike:
		// Visibility is not checked; an existing like stays removable.
		if principal == nil {
			return domainerrors.ErrMissingCredential
		}
		if !liked {
			return domainerrors.ErrNotLiked
		}
		return nil
	}
	return errUnknownAction
}

// TaleView is a tale as returned to a caller, with the transient liked flag.
type TaleView struct {
	domain.Tale
	IsLiked *bool `json:"isLiked,omitempty"`
}

// Enrich wraps tale for principal. IsLiked is set only when a principal resolved.
func Enrich(tale *domain.Tale, principal *auth.Principal, liked bool) TaleView {
	view := TaleView{Tale: *tale}
	if principal != nil {
		view.IsLiked = &liked
	}
	return view
}
