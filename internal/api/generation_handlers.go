package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/talesmith/talesmith-server/internal/service"
)

func (s *Server) registerGenerationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "generateTale",
		Method:      http.MethodPost,
		Path:        "/api/v1/tales/generate",
		Summary:     "Generate tale",
		Description: "Generates tale text from story parameters. Nothing is saved.",
		Tags:        []string{"Tales"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGenerateTale)
}

// GenerateTaleRequest is the request body for tale generation.
type GenerateTaleRequest struct {
	Title         string `json:"title" doc:"Tale title"`
	AgeRange      string `json:"ageRange,omitempty" doc:"Reader age band: 3-5, 6-8 or 9-12"`
	Topic         string `json:"topic" doc:"What the tale is about"`
	MainCharacter string `json:"mainCharacter,omitempty" doc:"Main character description"`
	Setting       string `json:"setting,omitempty" doc:"Where the tale takes place"`
	Mood          string `json:"mood,omitempty" doc:"Overall tone (default happy)"`
	Length        string `json:"length,omitempty" enum:"short,medium,long" doc:"Tale length (default medium)"`
	MoralLesson   string `json:"moralLesson,omitempty" doc:"Lesson the tale should teach"`
}

// GenerateTaleInput wraps the generation request for Huma.
type GenerateTaleInput struct {
	Authorization string `header:"Authorization"`
	Body          GenerateTaleRequest
}

// GenerateTaleOutput wraps the generated text for Huma.
type GenerateTaleOutput struct {
	Body service.GenerateResult
}

func (s *Server) handleGenerateTale(ctx context.Context, input *GenerateTaleInput) (*GenerateTaleOutput, error) {
	principal, err := s.requirePrincipal(ctx, "generate tale", input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Generation.Generate(ctx, principal, service.GenerateRequest{
		Title:         input.Body.Title,
		AgeRange:      input.Body.AgeRange,
		Topic:         input.Body.Topic,
		MainCharacter: input.Body.MainCharacter,
		Setting:       input.Body.Setting,
		Mood:          input.Body.Mood,
		Length:        input.Body.Length,
		MoralLesson:   input.Body.MoralLesson,
	})
	if err != nil {
		return nil, s.handleErr(ctx, "generate tale", err)
	}
	return &GenerateTaleOutput{Body: *result}, nil
}
