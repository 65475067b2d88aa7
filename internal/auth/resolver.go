package auth

import (
	"context"
	"strings"

	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
)

// State is the outcome of resolving credential material.
type State int

// Resolution states.
const (
	// Absent means no credential material was supplied.
	Absent State = iota
	// Invalid means material was supplied but failed verification.
	Invalid
	// Present means the material verified and carries a principal.
	Present
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Invalid:
		return "invalid"
	case Present:
		return "present"
	}
	return "unknown"
}

// Resolution is the tri-state result of Resolver.Resolve.
type Resolution struct {
	State     State
	Principal *Principal
}

// Anonymous is the resolution of a request that carried no credential.
var Anonymous = Resolution{State: Absent}

// Require returns the principal, or the error a mandatory path reports.
func (r Resolution) Require() (*Principal, error) {
	switch r.State {
	case Present:
		return r.Principal, nil
	case Invalid:
		return nil, domainerrors.ErrInvalidCredential
	default:
		return nil, domainerrors.ErrMissingCredential
	}
}

// Optional returns the principal when one resolved and nil otherwise.
// Invalid material degrades to anonymous.
func (r Resolution) Optional() *Principal {
	if r.State == Present {
		return r.Principal
	}
	return nil
}

// Verifier checks an opaque token and returns its claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Resolver turns Authorization header values into resolutions.
type Resolver struct {
	verifier Verifier
}

// NewResolver creates a resolver backed by verifier.
func NewResolver(verifier Verifier) *Resolver {
	return &Resolver{verifier: verifier}
}

// Resolve classifies material, which is either "Bearer <token>" or a bare token.
// It never returns an error; callers pick Require or Optional.
func (r *Resolver) Resolve(_ context.Context, material string) Resolution {
	token := extractToken(material)
	if token == "" {
		return Anonymous
	}

	claims, err := r.verifier.Verify(token)
	if err != nil {
		return Resolution{State: Invalid}
	}
	return Resolution{State: Present, Principal: &Principal{ID: claims.UserID}}
}

func extractToken(material string) string {
	material = strings.TrimSpace(material)
	if scheme, rest, ok := strings.Cut(material, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return material
}
