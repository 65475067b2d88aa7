// Package di provides dependency injection configuration for the Talesmith server.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/di/providers"
	"github.com/talesmith/talesmith-server/internal/engagement"
	"github.com/talesmith/talesmith-server/internal/generation"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/service"
	"github.com/talesmith/talesmith-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideLedger)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideResolver)

	// Generation
	do.Provide(injector, providers.ProvideGenerator)
	do.Provide(injector, providers.ProvideGenerationLimiter)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTaleService)
	do.Provide(injector, providers.ProvideGenerationService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. The HTTP server is invoked last so it
// only starts accepting requests once the search index agrees with the store.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	if err := providers.SyncSearchIndex(ctx, injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*engagement.Ledger](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*auth.Resolver](injector)
	_ = do.MustInvoke[generation.Generator](injector)
	_ = do.MustInvoke[*providers.GenerationLimiterHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TaleService](injector)
	_ = do.MustInvoke[*service.GenerationService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
