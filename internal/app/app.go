package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/heartmarshall/commonprayer-backend/internal/config"
	"github.com/heartmarshall/commonprayer-backend/internal/transport/middleware"
	"github.com/heartmarshall/commonprayer-backend/internal/transport/rest"
)

// Run is the HTTP server entry point. It loads configuration, wires the
// services, serves the REST API and shuts down gracefully when ctx is done.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("toc_source", cfg.TOC.Source),
	)

	deps, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit)
		defer rateLimiter.Stop()
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      NewHandler(cfg, logger, deps, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// NewHandler builds the REST router wrapped in the middleware chain.
// rateLimiter may be nil.
func NewHandler(cfg *config.Config, logger *slog.Logger, deps *Deps, rateLimiter *middleware.RateLimiter) http.Handler {
	components := []rest.Component{{Name: "toc", Pinger: tocHealth{store: deps.Store}}}
	if deps.Pool != nil {
		components = append(components, rest.Component{Name: "database", Pinger: deps.Pool})
	}
	if deps.Cache != nil {
		components = append(components, rest.Component{Name: "cache", Pinger: deps.Cache, Optional: true})
	}
	if deps.Meili != nil {
		components = append(components, rest.Component{Name: "search", Pinger: deps.Meili, Optional: true})
	}

	handlers := rest.Handlers{
		Health:   rest.NewHealthHandler(BuildVersion(), components...),
		Document: rest.NewDocumentHandler(deps.Pages, logger),
		Calendar: rest.NewCalendarHandler(deps.Calendar, logger),
		Search:   rest.NewSearchHandler(deps.Search, logger),
	}
	if deps.JWT != nil {
		handlers.Admin = rest.NewAdminHandler(deps.Store, deps.Search, logger)
	}

	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Unless(middleware.IsProbe, middleware.Logger(logger)),
		middleware.CORS(cfg.CORS),
	}
	if rateLimiter != nil {
		chain = append(chain, middleware.Unless(middleware.IsProbe, rateLimiter.Limit()))
	}
	if deps.JWT != nil {
		chain = append(chain, middleware.Auth(deps.JWT))
	}

	return middleware.Chain(chain...)(rest.NewRouter(handlers))
}
