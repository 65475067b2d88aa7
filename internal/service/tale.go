// Package service implements the tale, generation and account operations on
// top of the store, the engagement ledger and the search index.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/talesmith/talesmith-server/internal/access"
	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/engagement"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
	"github.com/talesmith/talesmith-server/internal/id"
	"github.com/talesmith/talesmith-server/internal/normalize"
	"github.com/talesmith/talesmith-server/internal/search"
	"github.com/talesmith/talesmith-server/internal/store"
	"github.com/talesmith/talesmith-server/internal/validation"
)

// Listing limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SearchIndex keeps the full-text index of public tales in step with the store.
type SearchIndex interface {
	IndexTale(t *domain.Tale) error
	RemoveTale(id string) error
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// TaleService handles tale authoring, reading, listing and likes.
type TaleService struct {
	store     store.Store
	ledger    *engagement.Ledger
	index     SearchIndex
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTaleService creates a tale service. index may be nil, in which case
// Search reports an internal error.
func NewTaleService(s store.Store, ledger *engagement.Ledger, index SearchIndex, v *validation.Validator, logger *slog.Logger) *TaleService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TaleService{
		store:     s,
		ledger:    ledger,
		index:     index,
		validator: v,
		logger:    logger,
	}
}

// CreateTaleRequest holds the fields of a new tale.
type CreateTaleRequest struct {
	Title    string `json:"title" validate:"notblank,max=200"`
	Content  string `json:"content" validate:"notblank,max=100000"`
	AgeRange string `json:"ageRange" validate:"agerange"`
	Topic    string `json:"topic" validate:"notblank,max=200"`
	IsPublic bool   `json:"isPublic"`
}

// UpdateTaleRequest is a partial update. Nil fields are left unchanged.
type UpdateTaleRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitnil,notblank,max=200"`
	Content  *string `json:"content,omitempty" validate:"omitnil,notblank,max=100000"`
	IsPublic *bool   `json:"isPublic,omitempty"`
}

// ListPublicRequest selects a page of public tales.
type ListPublicRequest struct {
	AgeRange string `json:"ageRange,omitempty" validate:"omitempty,agerange"`
	Sort     string `json:"sort,omitempty"`
	Page     int    `json:"page,omitempty" validate:"gte=0"`
	PageSize int    `json:"pageSize,omitempty" validate:"gte=0,lte=100"`
}

// SearchRequest is a full-text query over public tales.
type SearchRequest struct {
	Query    string `json:"q" validate:"max=200"`
	AgeRange string `json:"ageRange,omitempty" validate:"omitempty,agerange"`
	Sort     string `json:"sort,omitempty" validate:"omitempty,oneof=relevance newest mostLiked"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
}

// TalePage is one page of a tale listing.
type TalePage struct {
	Tales    []access.TaleView `json:"tales"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// LikeResult reports the state of a (user, tale) pair after a transition.
type LikeResult struct {
	TaleID  string `json:"taleId"`
	Likes   int    `json:"likes"`
	IsLiked bool   `json:"isLiked"`
}

// Create stores a new tale authored by principal. Private unless IsPublic is set.
func (s *TaleService) Create(ctx context.Context, principal *auth.Principal, req CreateTaleRequest) (*domain.Tale, error) {
	if principal == nil {
		return nil, domainerrors.ErrMissingCredential
	}

	req.Title = normalize.Line(req.Title)
	req.Topic = normalize.Line(req.Topic)
	req.Content = normalize.Content(req.Content)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	author, err := s.store.GetUser(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredential("token user no longer exists")
		}
		return nil, s.storeErr(err, "create tale", "")
	}

	taleID, err := id.Generate(id.PrefixTale)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate tale id")
	}

	tale := &domain.Tale{
		ID:         taleID,
		Title:      req.Title,
		Content:    req.Content,
		AgeRange:   domain.AgeRange(req.AgeRange),
		Topic:      req.Topic,
		IsPublic:   req.IsPublic,
		AuthorID:   author.ID,
		AuthorName: author.Name,
	}
	tale.InitTimestamps()

	if err := s.store.CreateTale(ctx, tale); err != nil {
		return nil, s.storeErr(err, "create tale", taleID)
	}

	s.logger.Info("tale created", "tale_id", tale.ID, "user_id", principal.ID, "is_public", tale.IsPublic)
	s.reindex(tale)
	return tale, nil
}

// Read returns a tale to the caller described by res. Public tales are
// readable by anyone; private tales only by their author. An invalid
// credential is treated as anonymous.
func (s *TaleService) Read(ctx context.Context, taleID string, res auth.Resolution) (access.TaleView, error) {
	principal := res.Optional()

	tale, err := s.store.GetTale(ctx, taleID)
	if err != nil {
		return access.TaleView{}, s.storeErr(err, "read tale", taleID)
	}
	if err := access.Decide(access.Read, tale, principal, false); err != nil {
		return access.TaleView{}, err
	}

	liked := false
	if principal != nil {
		if liked, err = s.store.IsLiked(ctx, principal.ID, taleID); err != nil {
			s.logger.Warn("failed to load liked state", "tale_id", taleID, "user_id", principal.ID, "error", err)
			return access.Enrich(tale, nil, false), nil
		}
	}
	return access.Enrich(tale, principal, liked), nil
}

// Update applies an author's partial update. The patch is validated before the
// store is touched; likes are never changed here.
func (s *TaleService) Update(ctx context.Context, taleID string, principal *auth.Principal, req UpdateTaleRequest) (*domain.Tale, error) {
	if principal == nil {
		return nil, domainerrors.ErrMissingCredential
	}

	if req.Title != nil {
		title := normalize.Line(*req.Title)
		req.Title = &title
	}
	if req.Content != nil {
		content := normalize.Content(*req.Content)
		req.Content = &content
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tale, err := s.store.GetTale(ctx, taleID)
	if err != nil {
		return nil, s.storeErr(err, "update tale", taleID)
	}
	if err := access.Decide(access.Update, tale, principal, false); err != nil {
		return nil, err
	}

	patch := domain.TalePatch{Title: req.Title, Content: req.Content, IsPublic: req.IsPublic}
	if patch.IsEmpty() {
		return tale, nil
	}
	patch.Apply(tale)

	if err := s.store.UpdateTale(ctx, tale); err != nil {
		return nil, s.storeErr(err, "update tale", taleID)
	}

	s.logger.Info("tale updated", "tale_id", taleID, "user_id", principal.ID, "is_public", tale.IsPublic)
	s.reindex(tale)
	return tale, nil
}

// Delete removes an author's tale along with every like of it.
func (s *TaleService) Delete(ctx context.Context, taleID string, principal *auth.Principal) error {
	if principal == nil {
		return domainerrors.ErrMissingCredential
	}

	tale, err := s.store.GetTale(ctx, taleID)
	if err != nil {
		return s.storeErr(err, "delete tale", taleID)
	}
	if err := access.Decide(access.Delete, tale, principal, false); err != nil {
		return err
	}

	if err := s.store.DeleteTale(ctx, taleID); err != nil {
		return s.storeErr(err, "delete tale", taleID)
	}

	s.logger.Info("tale deleted", "tale_id", taleID, "user_id", principal.ID, "likes", tale.Likes)
	if s.index != nil {
		if err := s.index.RemoveTale(taleID); err != nil {
			s.logger.Warn("failed to remove tale from search index", "tale_id", taleID, "error", err)
		}
	}
	return nil
}

// Like records principal's like of a public tale.
func (s *TaleService) Like(ctx context.Context, taleID string, principal *auth.Principal) (*LikeResult, error) {
	likes, err := s.ledger.Like(ctx, principal, taleID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{TaleID: taleID, Likes: likes, IsLiked: true}, nil
}

// Unlike removes principal's like of a tale, public or not.
func (s *TaleService) Unlike(ctx context.Context, taleID string, principal *auth.Principal) (*LikeResult, error) {
	likes, err := s.ledger.Unlike(ctx, principal, taleID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{TaleID: taleID, Likes: likes, IsLiked: false}, nil
}

// ListMine returns the principal's own tales, newest first.
// visibility is one of all (default), public or private.
func (s *TaleService) ListMine(ctx context.Context, principal *auth.Principal, visibility string) ([]*domain.Tale, error) {
	if principal == nil {
		return nil, domainerrors.ErrMissingCredential
	}

	v := domain.Visibility(visibility)
	switch v {
	case "":
		v = domain.VisibilityAll
	case domain.VisibilityAll, domain.VisibilityPublic, domain.VisibilityPrivate:
	default:
		return nil, domainerrors.ValidationWithDetails("invalid visibility",
			map[string]string{"visibility": "must be one of: all public private"})
	}

	tales, _, err := s.store.ListTales(ctx,
		store.TaleFilter{AuthorID: principal.ID, IsPublic: v.IsPublicFilter()},
		domain.SortNewest,
		store.Page{},
	)
	if err != nil {
		return nil, s.storeErr(err, "list tales", "")
	}
	return tales, nil
}

// ListPublic returns a page of public tales. When the caller is signed in each
// tale carries whether they like it; that lookup is best effort.
func (s *TaleService) ListPublic(ctx context.Context, res auth.Resolution, req ListPublicRequest) (*TalePage, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	public := true
	tales, total, err := s.store.ListTales(ctx,
		store.TaleFilter{IsPublic: &public, AgeRange: domain.AgeRange(req.AgeRange)},
		domain.ParseTaleSort(req.Sort),
		store.Page{Offset: (page - 1) * pageSize, Limit: pageSize},
	)
	if err != nil {
		return nil, s.storeErr(err, "list public tales", "")
	}

	return &TalePage{
		Tales:    s.enrichAll(ctx, tales, res.Optional()),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Search runs a full-text query over public tales. Hits are re-read from the
// store so a stale index never exposes a tale that has since gone private.
func (s *TaleService) Search(ctx context.Context, res auth.Resolution, req SearchRequest) (*TalePage, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, domainerrors.Wrap(nil, domainerrors.CodeInternal, "search is not available")
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}

	result, err := s.index.Search(ctx, search.Params{
		Query:    normalize.Line(req.Query),
		AgeRange: req.AgeRange,
		Sort:     req.Sort,
		Limit:    limit,
	})
	if err != nil {
		s.logger.Error("search failed", "query", req.Query, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	tales := make([]*domain.Tale, 0, len(result.Hits))
	for _, hit := range result.Hits {
		tale, err := s.store.GetTale(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, s.storeErr(err, "search tales", hit.ID)
		}
		if tale.IsPublic {
			tales = append(tales, tale)
		}
	}

	return &TalePage{
		Tales:    s.enrichAll(ctx, tales, res.Optional()),
		Total:    int(result.Total),
		Page:     1,
		PageSize: limit,
	}, nil
}

// enrichAll attaches the liked flag for principal. On failure the tales are
// returned without it.
func (s *TaleService) enrichAll(ctx context.Context, tales []*domain.Tale, principal *auth.Principal) []access.TaleView {
	var liked map[string]bool
	if principal != nil {
		ids, err := s.store.LikedTaleIDs(ctx, principal.ID)
		if err != nil {
			s.logger.Warn("failed to load liked tales", "user_id", principal.ID, "error", err)
			principal = nil
		} else {
			liked = make(map[string]bool, len(ids))
			for _, taleID := range ids {
				liked[taleID] = true
			}
		}
	}

	views := make([]access.TaleView, len(tales))
	for i, t := range tales {
		views[i] = access.Enrich(t, principal, liked[t.ID])
	}
	return views
}

func (s *TaleService) reindex(tale *domain.Tale) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexTale(tale); err != nil {
		s.logger.Warn("failed to index tale", "tale_id", tale.ID, "error", err)
	}
}

// storeErr maps persistence failures onto the domain taxonomy.
func (s *TaleService) storeErr(err error, op, taleID string) error {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("tale %s not found", taleID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.logger.Error("store operation failed", "op", op, "tale_id", taleID, "error", err)
	return domainerrors.StoreFailure(err, "failed to "+op)
}
