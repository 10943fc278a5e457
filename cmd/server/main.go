package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/downloadactivity/internal/config"
	"github.com/rpggio/downloadactivity/internal/domain/access"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/feed"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/rpggio/downloadactivity/internal/kafka"
	"github.com/rpggio/downloadactivity/internal/mcp"
	"github.com/rpggio/downloadactivity/internal/postgres"
	"github.com/rpggio/downloadactivity/internal/sqlite"
	"github.com/rpggio/downloadactivity/internal/transport"
	"github.com/rpggio/downloadactivity/internal/urls"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.File != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.File, cfg.Log.MaxBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	if cfg.DB.SeedPath != "" {
		seed, err := sqlite.LoadSeedFile(cfg.DB.SeedPath)
		if err != nil {
			logger.Error("failed to load seed", "error", err)
			os.Exit(1)
		}
		if err := sqlite.Seed(context.Background(), db, seed); err != nil {
			logger.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	activityRepo, closeRepo, err := openActivityRepository(cfg.DB, db, logger)
	if err != nil {
		logger.Error("failed to open activity store", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	var sinks []activity.Sink
	if cfg.Kafka.Enabled() {
		sink := kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer sink.Close()
		sinks = append(sinks, sink)
		logger.Info("mirroring activity to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	links, err := urls.New(cfg.URLs.BaseURL)
	if err != nil {
		logger.Error("invalid base url", "error", err)
		os.Exit(1)
	}

	users := sqlite.NewUserRepository(db, logger)
	nodes := sqlite.NewNodeRepository(db)

	activitySvc := activity.NewService(activityRepo, logger, sinks...)
	resolver := owner.NewResolver(nodes, logger)
	accessSvc := access.NewService(resolver, activity.NewBuilder(nil), activitySvc, links, logger)
	feedSvc := feed.NewService(activitySvc, feed.NewRenderer(users, links, cfg.Render.RequirePNG), nil, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Access: accessSvc,
			Feed:   feedSvc,
		},
		Resolver:      users,
		AuthEnabled:   cfg.Auth.Enabled,
		DefaultUser:   cfg.Auth.DefaultUser,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	// Branch based on transport mode
	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}

	authMiddleware := transport.StaticUserMiddleware(cfg.Auth.DefaultUser)
	if cfg.Auth.Enabled {
		authMiddleware = transport.AuthMiddleware(users)
	}
	router := transport.NewServer(accessSvc, feedSvc, authMiddleware, logger)
	router.Handle("/mcp", mcp.NewHTTPHandler(mcpServer))
	router.Handle("/mcp/*", mcp.NewHTTPHandler(mcpServer))

	runHTTPMode(logger, router, cfg.Server.Host, cfg.Server.Port)
}

// openActivityRepository returns the configured event store and its closer.
func openActivityRepository(cfg config.DBConfig, db *sqlite.DB, logger *slog.Logger) (activity.Repository, func(), error) {
	if cfg.Driver != "postgres" {
		return sqlite.NewActivityRepository(db), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := postgres.Open(ctx, cfg.DSN, 10)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewActivityRepository(pg)
	if err := repo.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	logger.Info("storing activity in postgres")
	return repo, func() { pg.Close() }, nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	transport := &sdkmcp.StdioTransport{}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, transport); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(logger *slog.Logger, router *chi.Mux, host string, port int) {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
