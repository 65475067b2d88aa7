package api

import "github.com/talesmith/talesmith-server/internal/service"

// Services groups the business logic used by the API server.
type Services struct {
	Auth       *service.AuthService
	Tale       *service.TaleService
	Generation *service.GenerationService
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}
