package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/heartmarshall/commonprayer-backend/internal/config"
	"github.com/heartmarshall/commonprayer-backend/internal/transport/mcp"
)

// RunMCP serves the MCP tools over stdio or streamable HTTP, as configured.
// In stdio mode stdout carries the protocol, so logs go to stderr only.
func RunMCP(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	deps, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	s := mcp.NewServer(logger, Version, deps.Pages, deps.Search)

	switch cfg.MCP.Transport {
	case config.MCPTransportHTTP:
		return serveMCPHTTP(ctx, cfg, logger, s)
	default:
		logger.Info("mcp server on stdio", slog.String("version", BuildVersion()))
		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("mcp stdio: %w", err)
		}
		return nil
	}
}

func serveMCPHTTP(ctx context.Context, cfg *config.Config, logger *slog.Logger, s *server.MCPServer) error {
	httpServer := mcp.NewHTTPServer(s, cfg.MCP.EndpointPath)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp server listening",
			slog.String("addr", cfg.MCP.Addr),
			slog.String("endpoint", cfg.MCP.EndpointPath),
		)
		if err := httpServer.Start(cfg.MCP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
