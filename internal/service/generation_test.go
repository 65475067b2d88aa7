package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
	"github.com/talesmith/talesmith-server/internal/ratelimit"
	"github.com/talesmith/talesmith-server/internal/validation"
)

func validGenerate() GenerateRequest {
	return GenerateRequest{
		Title:    "The Brave Fox",
		AgeRange: "3-5",
		Topic:    "courage",
	}
}

func TestGenerationService_Generate(t *testing.T) {
	gen := &fakeGenerator{reply: "  Once upon a time, a fox was brave.\n"}
	svc := NewGenerationService(gen, nil, validation.New(), nil)

	req := validGenerate()
	req.MainCharacter = " a small fox "
	req.Length = "short"

	res, err := svc.Generate(context.Background(), reader, req)
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time, a fox was brave.", res.Content)
	assert.Equal(t, 200, res.TargetWordCount)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, `"The Brave Fox" about courage`)
	assert.Contains(t, prompt, "The main character is a small fox.")
	assert.Contains(t, prompt, "around 200 words")
}

func TestGenerationService_UnknownAgeRange(t *testing.T) {
	gen := &fakeGenerator{reply: "A tale."}
	svc := NewGenerationService(gen, nil, validation.New(), nil)

	req := validGenerate()
	req.AgeRange = "adults"

	res, err := svc.Generate(context.Background(), reader, req)
	require.NoError(t, err)
	assert.Equal(t, 800, res.TargetWordCount)
	assert.Contains(t, gen.lastPrompt(), "children aged adults years")
}

func TestGenerationService_Validation(t *testing.T) {
	gen := &fakeGenerator{reply: "A tale."}
	svc := NewGenerationService(gen, nil, validation.New(), nil)

	req := validGenerate()
	req.Title = " "
	_, err := svc.Generate(context.Background(), reader, req)
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "title")
	assert.Empty(t, gen.lastPrompt(), "generator must not be called")
}

func TestGenerationService_RequiresPrincipal(t *testing.T) {
	svc := NewGenerationService(&fakeGenerator{}, nil, validation.New(), nil)
	_, err := svc.Generate(context.Background(), nil, validGenerate())
	assert.ErrorIs(t, err, domainerrors.ErrMissingCredential)
}

func TestGenerationService_UpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream returned 529")}
	svc := NewGenerationService(gen, nil, validation.New(), nil)

	_, err := svc.Generate(context.Background(), reader, validGenerate())
	require.ErrorIs(t, err, domainerrors.ErrUpstreamGeneration)
	assert.Equal(t, domainerrors.CodeUpstreamGeneration.HTTPStatus(), 502)
}

func TestGenerationService_Canceled(t *testing.T) {
	gen := &fakeGenerator{err: context.Canceled}
	svc := NewGenerationService(gen, nil, validation.New(), nil)

	_, err := svc.Generate(context.Background(), reader, validGenerate())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerationService_RateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)

	gen := &fakeGenerator{reply: "A tale."}
	svc := NewGenerationService(gen, limiter, validation.New(), nil)
	ctx := context.Background()

	for range 2 {
		_, err := svc.Generate(ctx, reader, validGenerate())
		require.NoError(t, err)
	}

	_, err := svc.Generate(ctx, reader, validGenerate())
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	// Quotas are per user.
	_, err = svc.Generate(ctx, author, validGenerate())
	assert.NoError(t, err)
}
