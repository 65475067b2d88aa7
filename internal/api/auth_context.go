package api

import (
	"context"

	"github.com/talesmith/talesmith-server/internal/auth"
)

// resolve classifies the Authorization header. It never fails; handlers
// decide whether a principal is mandatory.
func (s *Server) resolve(ctx context.Context, authHeader string) auth.Resolution {
	res := s.resolver.Resolve(ctx, authHeader)
	if res.State == auth.Invalid {
		s.logger.DebugContext(ctx, "invalid credential presented")
	}
	return res
}

// requirePrincipal resolves the header and fails with MissingCredential or
// InvalidCredential when no principal is present.
func (s *Server) requirePrincipal(ctx context.Context, op, authHeader string) (*auth.Principal, error) {
	principal, err := s.resolve(ctx, authHeader).Require()
	if err != nil {
		return nil, s.handleErr(ctx, op, err)
	}
	return principal, nil
}
