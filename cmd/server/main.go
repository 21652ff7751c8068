package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dezobq/snapgram/internal/auth"
	"github.com/dezobq/snapgram/internal/config"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/observability"
	"github.com/dezobq/snapgram/internal/query"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()
	logs.Setup(os.Stdout, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logs.LogJSON("FATAL", "Invalid configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		ServiceName:  "snapgram-api",
		Version:      "1.0.0",
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     true,
	})
	if err != nil {
		logs.LogJSON("FATAL", "Tracing setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	svc, closeBackend, err := newService(ctx, cfg)
	if err != nil {
		logs.LogJSON("FATAL", "Backend setup failed", map[string]interface{}{"backend": cfg.Backend, "error": err.Error()})
		os.Exit(1)
	}
	defer closeBackend()

	sessions, closeSessions := newSessionStore(ctx, cfg.Redis)
	defer closeSessions()

	queries, err := query.New(query.Options{
		Size:                cfg.QueryCacheSize,
		StaleTime:           cfg.QueryStaleTime,
		RefetchOnInvalidate: true,
	})
	if err != nil {
		logs.LogJSON("FATAL", "Query cache setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	r := setupRouter(svc, sessions, auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL), queries)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logs.LogJSON("INFO", "Server listening", map[string]interface{}{"port": cfg.Port, "backend": cfg.Backend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.LogJSON("FATAL", "Server stopped", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	queries.Wait()
	_ = shutdownTracing(shutdownCtx)
	logs.LogJSON("INFO", "Server stopped", nil)
}
