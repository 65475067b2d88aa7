package providers

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"

	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/engagement"
	"github.com/talesmith/talesmith-server/internal/generation"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/ratelimit"
	"github.com/talesmith/talesmith-server/internal/service"
	"github.com/talesmith/talesmith-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideLedger provides the engagement ledger. Like counts flow into the search index.
func ProvideLedger(i do.Injector) (*engagement.Ledger, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return engagement.NewLedger(storeHandle.Store, index.TaleIndex, log.Logger), nil
}

// ProvideGenerator provides the upstream text generator client.
func ProvideGenerator(i do.Injector) (generation.Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Generator.APIKey == "" {
		log.Warn("No generator API key configured, tale generation requests will fail")
	}

	return generation.NewClient(generation.ClientConfig{
		APIKey:      cfg.Generator.APIKey,
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
		Timeout:     cfg.Generator.Timeout,
	}, log.Logger), nil
}

// GenerationLimiterHandle owns the generation quota and its Redis client.
type GenerationLimiterHandle struct {
	ratelimit.Limiter
	local  *ratelimit.KeyedRateLimiter
	client *redis.Client
}

// Shutdown implements do.Shutdownable.
func (h *GenerationLimiterHandle) Shutdown() error {
	h.local.Stop()
	if h.client != nil {
		return h.client.Close()
	}
	return nil
}

// ProvideGenerationLimiter provides the per-user generation quota. With a Redis
// address configured the quota is shared between replicas.
func ProvideGenerationLimiter(i do.Injector) (*GenerationLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	rpm := cfg.Generator.RequestsPerMinute
	local := ratelimit.PerMinute(rpm)

	if cfg.Redis.Addr == "" {
		log.Info("Generation quota is per process", "requests_per_minute", rpm)
		return &GenerationLimiterHandle{Limiter: local, local: local}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Info("Generation quota shared through Redis", "addr", cfg.Redis.Addr, "requests_per_minute", rpm)

	return &GenerationLimiterHandle{
		Limiter: ratelimit.NewRedis(client, rpm, time.Minute, local, log.Logger),
		local:   local,
		client:  client,
	}, nil
}

// ProvideAuthService provides the account service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, v, log.Logger), nil
}

// ProvideTaleService provides the tale service.
func ProvideTaleService(i do.Injector) (*service.TaleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ledger := do.MustInvoke[*engagement.Ledger](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTaleService(storeHandle.Store, ledger, index.TaleIndex, v, log.Logger), nil
}

// ProvideGenerationService provides the generation service.
func ProvideGenerationService(i do.Injector) (*service.GenerationService, error) {
	generator := do.MustInvoke[generation.Generator](i)
	limiter := do.MustInvoke[*GenerationLimiterHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenerationService(generator, limiter, v, log.Logger), nil
}
