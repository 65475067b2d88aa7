package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/domain"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
	"github.com/talesmith/talesmith-server/internal/id"
	"github.com/talesmith/talesmith-server/internal/normalize"
	"github.com/talesmith/talesmith-server/internal/store"
	"github.com/talesmith/talesmith-server/internal/validation"
)

// AuthService handles registration, login and the current account.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(s store.Store, tokenService *auth.TokenService, v *validation.Validator, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:        s,
		tokenService: tokenService,
		validator:    v,
		logger:       logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserView is the public part of a user.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserView strips the password hash from u.
func NewUserView(u *domain.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserView  `json:"user"`
}

// MeResponse describes the signed-in account.
type MeResponse struct {
	User         UserView `json:"user"`
	LikedTaleIDs []string `json:"likedTaleIds"`
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = normalize.Line(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash password")
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate user id")
	}

	user := &domain.User{
		ID:           userID,
		Name:         req.Name,
		Email:        domain.NormalizeEmail(req.Email),
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, domainerrors.StoreFailure(err, "failed to create user")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login verifies credentials and issues an access token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		s.logger.Error("failed to look up user", "error", err)
		return nil, domainerrors.StoreFailure(err, "failed to look up user")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return s.issue(user)
}

// Me returns the signed-in user and the tales they like.
func (s *AuthService) Me(ctx context.Context, principal *auth.Principal) (*MeResponse, error) {
	if principal == nil {
		return nil, domainerrors.ErrMissingCredential
	}

	user, err := s.store.GetUser(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.StoreFailure(err, "failed to load user")
	}

	liked, err := s.store.LikedTaleIDs(ctx, principal.ID)
	if err != nil {
		return nil, domainerrors.StoreFailure(err, "failed to load liked tales")
	}
	if liked == nil {
		liked = []string{}
	}

	return &MeResponse{User: NewUserView(user), LikedTaleIDs: liked}, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokenService.Issue(user.ID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue token")
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(s.tokenService.TTL()).UTC(),
		User:        NewUserView(user),
	}, nil
}
