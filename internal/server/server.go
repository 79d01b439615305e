// Package server собирает HTTP API: хранилище, каталог, auth gate,
// обработчики и цепочку middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/matswap/internal/authgate"
	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/config"
	"github.com/iudanet/matswap/internal/crypto"
	"github.com/iudanet/matswap/internal/server/handlers"
	"github.com/iudanet/matswap/internal/server/middleware"
	"github.com/iudanet/matswap/internal/storage"
	"github.com/iudanet/matswap/internal/storage/backend"
)

// authPathPrefix получает более строгий rate limit
const authPathPrefix = "/api/v1/auth/"

// healthPath не логируется на каждый запрос
const healthPath = "/api/v1/health"

// Server HTTP сервер matswap
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      storage.Storage
	catalog    *catalog.Catalog
	gate       *authgate.Gate
	limiter    *middleware.PathRateLimiter
	httpServer *http.Server
	jwtConfig  handlers.JWTConfig
	version    string
}

// New открывает хранилище из конфигурации и собирает сервер
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	s, err := NewWithStorage(ctx, cfg, logger, version, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return s, nil
}

// NewWithStorage собирает сервер поверх уже открытого хранилища.
// Хранилище закрывается в Close.
func NewWithStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string, store storage.Storage) (*Server, error) {
	cat, err := catalog.New(ctx, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	gate := authgate.New(store, logger, authgate.OptionsFromConfig(cfg.Auth))

	secret := cfg.Server.JWTSecret
	if secret == "" {
		secret, err = crypto.GenerateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		logger.WarnContext(ctx, "JWT secret is not configured, using a random one; sessions will not survive restart")
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		catalog: cat,
		gate:    gate,
		jwtConfig: handlers.JWTConfig{
			Secret:   []byte(secret),
			TokenTTL: cfg.Server.TokenTTL,
		},
		version: version,
		limiter: middleware.NewPathRateLimiter(
			[]middleware.PathRateLimit{{
				Prefix: authPathPrefix,
				Rate:   cfg.RateLimit.LoginRate,
				Window: cfg.RateLimit.LoginWindow,
			}},
			cfg.RateLimit.Rate,
			cfg.RateLimit.Window,
			logger,
		),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.InfoContext(ctx, "Server initialized",
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("catalog_records", cat.Len()),
		slog.Bool("admin_set_up", gate.IsSetUp(ctx)),
	)

	return s, nil
}

// Handler возвращает корневой http.Handler со всеми маршрутами и middleware
func (s *Server) Handler() http.Handler {
	health := handlers.NewHealthHandler(s.logger, s.version, s.store)
	catalogHandler := handlers.NewCatalogHandler(s.logger, s.catalog)
	authHandler := handlers.NewAuthHandler(s.logger, s.gate, s.jwtConfig)

	session := middleware.SessionMiddleware(s.logger, s.jwtConfig, s.gate)
	protected := func(h http.HandlerFunc) http.Handler {
		return session(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET "+healthPath, health.Health)

	// Auth gate
	mux.HandleFunc("GET /api/v1/auth/status", authHandler.Status)
	mux.HandleFunc("POST /api/v1/auth/setup", authHandler.Setup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("POST /api/v1/auth/logout", protected(authHandler.Logout))
	mux.Handle("POST /api/v1/auth/extend", protected(authHandler.Extend))
	mux.Handle("POST /api/v1/auth/password", protected(authHandler.ChangePassword))

	// Каталог: чтение публичное, назначение штрихкодов только для администратора
	mux.HandleFunc("GET /api/v1/catalog", catalogHandler.List)
	mux.HandleFunc("GET /api/v1/catalog/{id}", catalogHandler.Lookup)
	mux.Handle("GET /api/v1/catalog/next-id", protected(catalogHandler.NextID))
	mux.Handle("PUT /api/v1/catalog/{id}", protected(catalogHandler.Assign))
	mux.HandleFunc("POST /api/v1/swap", catalogHandler.Swap)

	var h http.Handler = mux
	h = s.limiter.Middleware(h)
	h = middleware.LoggingWithSkip(s.logger, []string{healthPath})(h)
	h = middleware.RecoveryMiddleware(s.logger)(h)
	h = middleware.RequestIDMiddleware(h)

	return h
}

// Run обслуживает запросы до отмены ctx, затем выполняет graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// Close освобождает ресурсы: rate limiter и хранилище
func (s *Server) Close() error {
	s.limiter.Stop()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
