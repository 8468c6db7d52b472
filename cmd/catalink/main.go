package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/config"
	dbRedis "github.com/catalink/catalink/internal/db/redis"
	logpkg "github.com/catalink/catalink/internal/logger"
	"github.com/catalink/catalink/internal/metrics"
	catalogrepo "github.com/catalink/catalink/internal/repository/catalog"
	supplierrepo "github.com/catalink/catalink/internal/repository/supplier"
	chiTransport "github.com/catalink/catalink/internal/transport/chi"
	openaiParser "github.com/catalink/catalink/internal/transport/openai"
	orderuc "github.com/catalink/catalink/internal/usecase/order"
	searchuc "github.com/catalink/catalink/internal/usecase/search"
	"github.com/catalink/catalink/internal/version"
	"github.com/catalink/catalink/internal/xrpc"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalink API server",
		zap.String("version", version.Human()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("erp_url", cfg.ERP.URL),
		zap.String("erp_database", cfg.ERP.Database),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterCoreMetrics()

	// ERP transport and session.
	client := xrpc.NewClient(&xrpc.ClientConfig{
		BaseURL: cfg.ERP.URL,
		Logger:  logger,
	})
	session := xrpc.NewSession(client, cfg.ERP.Database, cfg.ERP.Username, cfg.ERP.Password).
		WithLogger(logger)

	// Repositories
	catalogRepo := catalogrepo.New(session).WithLogger(logger)
	supplierBase := supplierrepo.New(catalogRepo).WithLogger(logger)

	// Optional caching decorator for supplier lookups
	var supplierLookup orderuc.SupplierLookup = supplierBase
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		supplierLookup = supplierrepo.NewCached(
			supplierBase, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.MOQCacheTotal, logger,
		)
	}

	// Use case services
	searchSvc := searchuc.New(catalogRepo, logger).
		WithLimits(cfg.Search.TopN, cfg.Search.PoolSize)
	orderSvc := orderuc.New(supplierLookup, logger).
		WithTimeout(time.Duration(cfg.Search.MOQTimeoutSec) * time.Second)

	// Optional natural-language query parser
	var parser chiTransport.QueryParser
	if cfg.Parser.APIKey != "" {
		parser = openaiParser.NewParser(&openaiParser.Config{
			APIKey:  cfg.Parser.APIKey,
			BaseURL: cfg.Parser.BaseURL,
			Model:   cfg.Parser.Model,
			Logger:  logger,
		})
		logger.Info("Query parser enabled", zap.String("model", cfg.Parser.Model))
	} else {
		logger.Info("Query parser disabled, literal search only")
	}

	// Create chi server
	server := chiTransport.NewServer(searchSvc, orderSvc, parser, session, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
