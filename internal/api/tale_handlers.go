package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/talesmith/talesmith-server/internal/access"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/service"
)

func (s *Server) registerTaleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createTale",
		Method:        http.MethodPost,
		Path:          "/api/v1/tales",
		Summary:       "Create tale",
		Description:   "Creates a tale owned by the caller. Tales are private unless isPublic is set.",
		Tags:          []string{"Tales"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTale)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyTales",
		Method:      http.MethodGet,
		Path:        "/api/v1/tales/user",
		Summary:     "List my tales",
		Description: "Returns the caller's tales, newest first",
		Tags:        []string{"Tales"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyTales)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicTales",
		Method:      http.MethodGet,
		Path:        "/api/v1/tales/public",
		Summary:     "List public tales",
		Description: "Returns a page of public tales. Signed-in callers also get isLiked per tale.",
		Tags:        []string{"Tales"},
	}, s.handleListPublicTales)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTales",
		Method:      http.MethodGet,
		Path:        "/api/v1/tales/search",
		Summary:     "Search tales",
		Description: "Full-text search over public tales",
		Tags:        []string{"Tales"},
	}, s.handleSearchTales)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTale",
		Method:      http.MethodGet,
		Path:        "/api/v1/tales/{id}",
		Summary:     "Get tale",
		Description: "Returns a public tale, or a private tale to its author",
		Tags:        []string{"Tales"},
	}, s.handleGetTale)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTale",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tales/{id}",
		Summary:     "Update tale",
		Description: "Updates title, content or visibility of the caller's tale",
		Tags:        []string{"Tales"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTale)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTale",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tales/{id}",
		Summary:     "Delete tale",
		Description: "Deletes the caller's tale and every like of it",
		Tags:        []string{"Tales"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTale)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeTale",
		Method:      http.MethodPost,
		Path:        "/api/v1/tales/{id}/like",
		Summary:     "Like tale",
		Description: "Likes a public tale",
		Tags:        []string{"Tales"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLikeTale)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlikeTale",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tales/{id}/like",
		Summary:     "Unlike tale",
		Description: "Removes the caller's like",
		Tags:        []string{"Tales"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnlikeTale)
}

// === DTOs ===

// CreateTaleRequest is the request body for creating a tale.
type CreateTaleRequest struct {
	Title    string `json:"title" doc:"Tale title"`
	Content  string `json:"content" doc:"Tale text. HTML is converted to Markdown."`
	AgeRange string `json:"ageRange" enum:"3-5,6-8,9-12" doc:"Reader age band"`
	Topic    string `json:"topic" doc:"What the tale is about"`
	IsPublic bool   `json:"isPublic,omitempty" doc:"Publish immediately (default false)"`
}

// CreateTaleInput wraps the create tale request for Huma.
type CreateTaleInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTaleRequest
}

// TaleOutput wraps a tale for Huma.
type TaleOutput struct {
	Body *domain.Tale
}

// ListMyTalesInput contains parameters for listing the caller's tales.
type ListMyTalesInput struct {
	Authorization string `header:"Authorization"`
	Visibility    string `query:"visibility" enum:"all,public,private" default:"all" doc:"Filter by visibility"`
}

// TaleListResponse contains a list of tales.
type TaleListResponse struct {
	Tales []*domain.Tale `json:"tales" doc:"Tales, newest first"`
}

// TaleListOutput wraps a list of tales for Huma.
type TaleListOutput struct {
	Body TaleListResponse
}

// ListPublicTalesInput contains parameters for listing public tales.
type ListPublicTalesInput struct {
	Authorization string `header:"Authorization"`
	AgeRange      string `query:"ageRange" doc:"Only tales for this age band"`
	Sort          string `query:"sort" doc:"newest (default), oldest or mostLiked"`
	Page          int    `query:"page" minimum:"0" doc:"1-based page number"`
	PageSize      int    `query:"page_size" minimum:"0" maximum:"100" doc:"Tales per page (default 20)"`
}

// TalePageOutput wraps a page of tales for Huma.
type TalePageOutput struct {
	Body service.TalePage
}

// SearchTalesInput contains parameters for searching tales.
type SearchTalesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" maxLength:"200" doc:"Search text"`
	AgeRange      string `query:"ageRange" doc:"Only tales for this age band"`
	Sort          string `query:"sort" doc:"relevance (default), newest or mostLiked"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results (default 20)"`
}

// GetTaleInput contains parameters for getting a tale.
type GetTaleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tale ID"`
}

// TaleViewOutput wraps a tale with the caller's liked flag for Huma.
type TaleViewOutput struct {
	Body access.TaleView
}

// UpdateTaleRequest is the request body for updating a tale.
type UpdateTaleRequest struct {
	Title    *string `json:"title,omitempty" doc:"New title"`
	Content  *string `json:"content,omitempty" doc:"New text"`
	IsPublic *bool   `json:"isPublic,omitempty" doc:"New visibility"`
}

// UpdateTaleInput wraps the update tale request for Huma.
type UpdateTaleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tale ID"`
	Body          UpdateTaleRequest
}

// TaleIDInput addresses a single tale on an authenticated path.
type TaleIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tale ID"`
}

// DeleteTaleResponse confirms a deletion.
type DeleteTaleResponse struct {
	ID      string `json:"id" doc:"Deleted tale ID"`
	Message string `json:"message" doc:"Confirmation message"`
}

// DeleteTaleOutput wraps the deletion confirmation for Huma.
type DeleteTaleOutput struct {
	Body DeleteTaleResponse
}

// LikeOutput wraps a like transition result for Huma.
type LikeOutput struct {
	Body service.LikeResult
}

// === Handlers ===

func (s *Server) handleCreateTale(ctx context.Context, input *CreateTaleInput) (*TaleOutput, error) {
	principal, err := s.requirePrincipal(ctx, "create tale", input.Authorization)
	if err != nil {
		return nil, err
	}

	tale, err := s.services.Tale.Create(ctx, principal, service.CreateTaleRequest{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		AgeRange: input.Body.AgeRange,
		Topic:    input.Body.Topic,
		IsPublic: input.Body.IsPublic,
	})
	if err != nil {
		return nil, s.handleErr(ctx, "create tale", err)
	}
	return &TaleOutput{Body: tale}, nil
}

func (s *Server) handleListMyTales(ctx context.Context, input *ListMyTalesInput) (*TaleListOutput, error) {
	principal, err := s.requirePrincipal(ctx, "list my tales", input.Authorization)
	if err != nil {
		return nil, err
	}

	tales, err := s.services.Tale.ListMine(ctx, principal, input.Visibility)
	if err != nil {
		return nil, s.handleErr(ctx, "list my tales", err)
	}
	return &TaleListOutput{Body: TaleListResponse{Tales: tales}}, nil
}

func (s *Server) handleListPublicTales(ctx context.Context, input *ListPublicTalesInput) (*TalePageOutput, error) {
	page, err := s.services.Tale.ListPublic(ctx, s.resolve(ctx, input.Authorization), service.ListPublicRequest{
		AgeRange: input.AgeRange,
		Sort:     input.Sort,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, s.handleErr(ctx, "list public tales", err)
	}
	return &TalePageOutput{Body: *page}, nil
}

func (s *Server) handleSearchTales(ctx context.Context, input *SearchTalesInput) (*TalePageOutput, error) {
	page, err := s.services.Tale.Search(ctx, s.resolve(ctx, input.Authorization), service.SearchRequest{
		Query:    input.Query,
		AgeRange: input.AgeRange,
		Sort:     input.Sort,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, s.handleErr(ctx, "search tales", err)
	}
	return &TalePageOutput{Body: *page}, nil
}

func (s *Server) handleGetTale(ctx context.Context, input *GetTaleInput) (*TaleViewOutput, error) {
	view, err := s.services.Tale.Read(ctx, input.ID, s.resolve(ctx, input.Authorization))
	if err != nil {
		return nil, s.handleErr(ctx, "get tale", err)
	}
	return &TaleViewOutput{Body: view}, nil
}

func (s *Server) handleUpdateTale(ctx context.Context, input *UpdateTaleInput) (*TaleOutput, error) {
	principal, err := s.requirePrincipal(ctx, "update tale", input.Authorization)
	if err != nil {
		return nil, err
	}

	tale, err := s.services.Tale.Update(ctx, input.ID, principal, service.UpdateTaleRequest{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		IsPublic: input.Body.IsPublic,
	})
	if err != nil {
		return nil, s.handleErr(ctx, "update tale", err)
	}
	return &TaleOutput{Body: tale}, nil
}

func (s *Server) handleDeleteTale(ctx context.Context, input *TaleIDInput) (*DeleteTaleOutput, error) {
	principal, err := s.requirePrincipal(ctx, "delete tale", input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tale.Delete(ctx, input.ID, principal); err != nil {
		return nil, s.handleErr(ctx, "delete tale", err)
	}
	return &DeleteTaleOutput{Body: DeleteTaleResponse{ID: input.ID, Message: "tale removed"}}, nil
}

func (s *Server) handleLikeTale(ctx context.Context, input *TaleIDInput) (*LikeOutput, error) {
	principal, err := s.requirePrincipal(ctx, "like tale", input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Tale.Like(ctx, input.ID, principal)
	if err != nil {
		return nil, s.handleErr(ctx, "like tale", err)
	}
	return &LikeOutput{Body: *result}, nil
}

func (s *Server) handleUnlikeTale(ctx context.Context, input *TaleIDInput) (*LikeOutput, error) {
	principal, err := s.requirePrincipal(ctx, "unlike tale", input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Tale.Unlike(ctx, input.ID, principal)
	if err != nil {
		return nil, s.handleErr(ctx, "unlike tale", err)
	}
	return &LikeOutput{Body: *result}, nil
}
