package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/talesmith/talesmith-server/internal/api"
	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/ratelimit"
	"github.com/talesmith/talesmith-server/internal/service"
)

// authAttemptsPerMinute and authBurst bound register and login per client IP.
const (
	authAttemptsPerMinute = 20
	authBurst             = 10
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	authLimiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.authLimiter.Stop()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	resolver := do.MustInvoke[*auth.Resolver](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Tale:       do.MustInvoke[*service.TaleService](i),
		Generation: do.MustInvoke[*service.GenerationService](i),
	}

	authLimiter := ratelimit.New(authAttemptsPerMinute/60.0, authBurst)

	handler := api.NewServer(storeHandle.Store, services, resolver, index.TaleIndex, api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthLimiter:    authLimiter,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, authLimiter: authLimiter}, nil
}
