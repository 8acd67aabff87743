package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bingo/internal/config"
	"bingo/internal/ratelimit"
	"bingo/internal/server"
	"bingo/internal/session"
	"bingo/internal/storage/postgres"
	"bingo/internal/storage/sqlite"
	"bingo/internal/storage/sqlstore"
	"bingo/internal/util"
)

func main() {
	configFlag := flag.String("config", util.EnvOrDefault("BINGO_CONFIG", ""), "Path to YAML config file")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbFlag := flag.String("db", "", "Path to sqlite database file (overrides config)")
	staticFlag := flag.String("static", "", "Directory with built frontend (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.DB.Path = *dbFlag
	}
	if *staticFlag != "" {
		cfg.Server.StaticDir = *staticFlag
	}

	logger := newLogger(os.Stdout, cfg.Log)
	logger.Info("bingo session server", slog.String("db", cfg.DB.Driver), slog.String("addr", cfg.Server.Addr))

	store, err := openStore(cfg.DB, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	limiter, closeLimiter, err := newLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("unable to set up rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLimiter()

	svc := session.NewService(store,
		session.WithLogger(logger),
		session.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	srv := server.New(svc, logger, server.Options{
		StaticDir:      cfg.Server.StaticDir,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Limiter:        limiter,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func openStore(cfg config.DBConfig, logger *slog.Logger) (*sqlstore.Store, error) {
	switch cfg.Driver {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return postgres.Open(ctx, cfg.URL, logger)
	default:
		return sqlite.Open(cfg.Path, logger)
	}
}

func newLimiter(cfg config.RateLimitConfig) (ratelimit.Limiter, func(), error) {
	noop := func() {}
	if cfg.Requests == 0 {
		return nil, noop, nil
	}
	if cfg.RedisURL == "" {
		return ratelimit.NewMemory(cfg.Requests, cfg.Window), noop, nil
	}
	r, err := ratelimit.NewRedis(cfg.RedisURL, cfg.Requests, cfg.Window)
	if err != nil {
		return nil, noop, err
	}
	return r, func() { _ = r.Close() }, nil
}
