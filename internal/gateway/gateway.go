// ABOUTME: Gateway orchestrator wiring registry, engine, metrics, and HTTP server
// ABOUTME: Manages startup, route registration, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/notsedano/f1-mcp-server/internal/auth"
	"github.com/notsedano/f1-mcp-server/internal/config"
	"github.com/notsedano/f1-mcp-server/internal/dispatch"
	"github.com/notsedano/f1-mcp-server/internal/f1data"
	"github.com/notsedano/f1-mcp-server/internal/fallback"
	"github.com/notsedano/f1-mcp-server/internal/metrics"
	"github.com/notsedano/f1-mcp-server/internal/store"
	"github.com/notsedano/f1-mcp-server/internal/tools"
)

// defaultStreamUser is the fixed identity tokens are issued for when the
// caller does not authenticate. Token verification and the streaming
// endpoint are intentionally not wired together; see the package docs.
const defaultStreamUser = "f1-user"

// Gateway orchestrates the F1 gateway server components.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	registry   *tools.Registry
	engine     *dispatch.Engine
	metrics    *metrics.Aggregator
	issuer     *auth.Issuer
	store      *store.SQLiteStore
	httpServer *http.Server
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	provider, err := f1data.New(logger.With("component", "f1data"))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("loading primary dataset: %w", err)
	}
	registry := tools.NewRegistry(provider.Capabilities())

	fallbackProvider := fallback.New(fallback.Config{
		BaseURL: cfg.Fallback.BaseURL,
		Year:    cfg.Fallback.Year,
		Timeout: cfg.Fallback.Timeout,
		Logger:  logger.With("component", "fallback"),
	})

	agg := metrics.New()
	engine := dispatch.NewEngine(dispatch.Config{
		Registry:     registry,
		Fallback:     fallbackProvider,
		Metrics:      agg,
		Audit:        s,
		FallbackYear: cfg.Fallback.Year,
		Logger:       logger.With("component", "dispatch"),
	})

	var issuer *auth.Issuer
	if cfg.Auth.JWTSecret != "" {
		issuer, err = auth.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating token issuer: %w", err)
		}
	} else {
		logger.Warn("token issuance disabled - no jwt_secret configured")
	}

	gw := &Gateway{
		config:   cfg,
		logger:   logger.With("component", "gateway"),
		registry: registry,
		engine:   engine,
		metrics:  agg,
		issuer:   issuer,
		store:    s,
	}

	mux := http.NewServeMux()
	gw.registerRoutes(mux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// registerRoutes registers all HTTP routes on the mux.
func (g *Gateway) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/tool", g.handleToolCall)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/schema", g.handleSchema)
	mux.HandleFunc("/auth/token", g.handleAuthToken)
	mux.HandleFunc("/stream", g.handleStream)
	mux.HandleFunc("/api/audit", g.handleAudit)
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "tools", g.registry.Len())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
