package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/luikyv/go-introspect/internal/config"
	"github.com/luikyv/go-introspect/internal/logs"
	"github.com/luikyv/go-introspect/internal/metrics"
	"github.com/luikyv/go-introspect/internal/tracing"
	"github.com/luikyv/go-introspect/pkg/provider"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 5 * time.Minute
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the token introspection endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			logger, err := logs.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	tracerProvider, err := tracing.New(ctx, cfg.Tracing, version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("could not flush the pending spans", zap.Error(err))
		}
	}()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			logger.Warn("could not close the storage", zap.Error(err))
		}
	}()

	handler, err := newHandler(cfg, st, logger, tracerProvider.Tracer())
	if err != nil {
		return err
	}

	if st.purgeExpired != nil {
		go purgeExpiredTokens(ctx, st, logger)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("introspection server listening",
			zap.String("addr", cfg.Addr),
			zap.String("issuer", cfg.Issuer),
			zap.String("storage", cfg.Storage.Driver))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down the introspection server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// newHandler wires the introspection provider together with the operational
// endpoints.
func newHandler(
	cfg *config.Config,
	st *stores,
	logger *zap.Logger,
	tracer trace.Tracer,
) (
	http.Handler,
	error,
) {
	opts := []provider.ProviderOption{
		provider.WithClientStorage(st.clients),
		provider.WithAccessTokenStorage(st.tokens),
		provider.WithPathPrefix(cfg.PathPrefix),
		provider.WithLogger(logger),
		provider.WithTracer(tracer),
	}

	if cfg.IntrospectionEndpoint != "" {
		opts = append(opts, provider.WithIntrospectionEndpoint(cfg.IntrospectionEndpoint))
	}

	if cfg.RejectMissingCredentials {
		opts = append(opts, provider.WithMissingCredentialsRejected())
	}

	if cfg.ClientsFile != "" {
		clients, err := config.LoadClients(cfg.ClientsFile)
		if err != nil {
			return nil, err
		}
		for _, client := range clients {
			opts = append(opts, provider.WithStaticClient(client))
		}
	}

	if cfg.JWKSFile != "" {
		jwks, err := config.LoadJWKS(cfg.JWKSFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, provider.WithJWKS(jwks))
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(accessLog(logger))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.MetricsEnabled {
		registry := metrics.NewRegistry()
		opts = append(opts, provider.WithMetrics(registry))
		router.Handle("/metrics", metrics.Handler(registry))
	}

	op, err := provider.New(cfg.Issuer, opts...)
	if err != nil {
		return nil, err
	}
	router.Mount("/", op.Handler())

	return router, nil
}

func purgeExpiredTokens(ctx context.Context, st *stores, logger *zap.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.purgeExpired(ctx)
			if err != nil {
				logger.Warn("could not purge expired access tokens", zap.Error(err))
				continue
			}
			logger.Debug("expired access tokens purged", zap.Int64("count", n))
		}
	}
}

// accessLog logs one line per request. Operational endpoints are logged at
// debug level.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			level := zap.InfoLevel
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				level = zap.DebugLevel
			}
			logger.Log(level, "request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
