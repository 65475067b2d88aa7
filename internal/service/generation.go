package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/talesmith/talesmith-server/internal/auth"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
	"github.com/talesmith/talesmith-server/internal/generation"
	"github.com/talesmith/talesmith-server/internal/ratelimit"
	"github.com/talesmith/talesmith-server/internal/validation"
)

// GenerationService turns story parameters into tale text through the
// external generator. Nothing it produces is persisted.
type GenerationService struct {
	generator generation.Generator
	limiter   ratelimit.Limiter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewGenerationService creates a generation service. limiter may be nil to
// disable the per-user quota.
func NewGenerationService(g generation.Generator, limiter ratelimit.Limiter, v *validation.Validator, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GenerationService{
		generator: g,
		limiter:   limiter,
		validator: v,
		logger:    logger,
	}
}

// GenerateRequest holds the story parameters. AgeRange is not restricted to
// the known bands; unknown values compile with the oldest band's settings.
type GenerateRequest struct {
	Title         string `json:"title" validate:"notblank,max=200"`
	AgeRange      string `json:"ageRange" validate:"max=20"`
	Topic         string `json:"topic" validate:"notblank,max=200"`
	MainCharacter string `json:"mainCharacter,omitempty" validate:"max=200"`
	Setting       string `json:"setting,omitempty" validate:"max=200"`
	Mood          string `json:"mood,omitempty" validate:"max=50"`
	Length        string `json:"length,omitempty" validate:"max=20"`
	MoralLesson   string `json:"moralLesson,omitempty" validate:"max=200"`
}

// GenerateResult is the generated text and the length it was asked to hit.
type GenerateResult struct {
	Content         string `json:"content"`
	TargetWordCount int    `json:"targetWordCount"`
}

// Generate compiles req and submits it to the generator on behalf of principal.
func (s *GenerationService) Generate(ctx context.Context, principal *auth.Principal, req GenerateRequest) (*GenerateResult, error) {
	if principal == nil {
		return nil, domainerrors.ErrMissingCredential
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, principal.ID) {
		return nil, domainerrors.RateLimited("generation quota exceeded, try again later")
	}

	compiled := generation.Compile(generation.Request{
		Title:         strings.TrimSpace(req.Title),
		AgeRange:      strings.TrimSpace(req.AgeRange),
		Topic:         strings.TrimSpace(req.Topic),
		MainCharacter: strings.TrimSpace(req.MainCharacter),
		Setting:       strings.TrimSpace(req.Setting),
		Mood:          strings.TrimSpace(req.Mood),
		Length:        generation.Length(strings.TrimSpace(req.Length)),
		MoralLesson:   strings.TrimSpace(req.MoralLesson),
	})

	start := time.Now()
	content, err := s.generator.Generate(ctx, compiled.Prompt())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Error("tale generation failed",
			"user_id", principal.ID,
			"age_range", compiled.AgeRange,
			"target_words", compiled.TargetWordCount,
			"error", err,
		)
		return nil, domainerrors.UpstreamGeneration(err)
	}

	s.logger.Info("tale generated",
		"user_id", principal.ID,
		"target_words", compiled.TargetWordCount,
		"words", len(strings.Fields(content)),
		"duration", time.Since(start),
	)

	return &GenerateResult{
		Content:         strings.TrimSpace(content),
		TargetWordCount: compiled.TargetWordCount,
	}, nil
}
