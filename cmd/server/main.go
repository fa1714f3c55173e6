package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"pilex/internal/config"
	"pilex/internal/db"
	"pilex/internal/gate"
	"pilex/internal/http/handlers"
	"pilex/internal/http/render"
	"pilex/internal/http/router"
	"pilex/internal/logging"
	"pilex/internal/security"
	"pilex/internal/users"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configPath() string {
	path := config.DefaultPath
	if p := os.Getenv("PILEX_CONFIG"); p != "" {
		path = p
	}
	flag.StringVar(&path, "config", path, "path to the YAML config file")
	flag.Parse()
	return path
}

func run() error {
	// Load configuration
	cfg, err := config.LoadWithEnv(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBDSN, db.Options{
		TablePrefix:  cfg.TablePrefix,
		ContentTypes: cfg.ContentTypes,
	})
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	// Initialize session store
	store, closeStore, err := sessionStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	renderer, err := render.New(logger)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	userService := users.NewService(database, security.NewHasher())
	deps := &handlers.Deps{
		Storage:  database,
		Users:    userService,
		Sessions: security.NewSessionStore(store, cfg.Session.Name),
		Renderer: renderer,
		Logger:   logger,
	}
	accessGate := gate.New(database, userService, gate.DefaultPaths())

	// Setup router
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.Setup(deps, accessGate),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr, "db_driver", cfg.DBDriver, "sessions", cfg.Session.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}

// sessionStore builds the configured session backend.
func sessionStore(cfg *config.Config, logger *slog.Logger) (sessions.Store, func(), error) {
	opts := security.CookieOptions(cfg.Session.MaxAge, cfg.Session.Secure)
	if cfg.Secret == "" {
		logger.Warn("no secret configured, sessions will not survive a restart")
	}

	if cfg.Session.Backend != "redis" {
		return security.NewCookieStore(cfg.Secret, opts), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Session.RedisAddr,
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	return security.NewRedisStore(client, opts, security.SecretKey(cfg.Secret)), func() { _ = client.Close() }, nil
}
