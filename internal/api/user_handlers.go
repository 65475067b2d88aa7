package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/talesmith/talesmith-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the signed-in user and the IDs of the tales they like",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// GetCurrentUserInput contains parameters for getting the current user.
type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// CurrentUserOutput wraps the current user response for Huma.
type CurrentUserOutput struct {
	Body service.MeResponse
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*CurrentUserOutput, error) {
	principal, err := s.requirePrincipal(ctx, "get current user", input.Authorization)
	if err != nil {
		return nil, err
	}

	me, err := s.services.Auth.Me(ctx, principal)
	if err != nil {
		return nil, s.handleErr(ctx, "get current user", err)
	}
	return &CurrentUserOutput{Body: *me}, nil
}
