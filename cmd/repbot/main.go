package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/config"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/extract"
	"github.com/claude/repbot/internal/mcp"
	"github.com/claude/repbot/internal/metrics"
	"github.com/claude/repbot/internal/server"
	"github.com/claude/repbot/internal/storage"
	"github.com/claude/repbot/internal/turnlock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("RepBot starting", "version", Version)

	// Run migrations
	dsn := cfg.Database.DSN()
	version, err := storage.RunMigrations(dsn, "migrations")
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "schema_version", version)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected", "max_conns", db.Pool.Config().MaxConns)

	// Turn lock: Redis when several replicas share the database
	var locker turnlock.Locker = turnlock.NewLocal()
	if cfg.Redis.Enabled {
		rdb, err := turnlock.ConnectRedis(cfg.Redis.URL)
		if err != nil {
			log.Error("redis config invalid", "error", err)
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis unreachable", "error", err)
			os.Exit(1)
		}
		locker = turnlock.NewRedis(rdb, 0, log)
		log.Info("redis turn lock enabled")
	}

	// Extractor
	ex, err := extract.New(cfg.Extractor.Backend, extract.OpenAIConfig{
		APIKey:  cfg.Extractor.APIKey,
		BaseURL: cfg.Extractor.BaseURL,
		Model:   cfg.Extractor.Model,
		Timeout: cfg.Extractor.Timeout,
	}, cfg.Extractor.FallbackToRules, log)
	if err != nil {
		log.Error("extractor setup failed", "error", err)
		os.Exit(1)
	}
	log.Info("extractor ready", "backend", cfg.Extractor.Backend)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Conversation engine
	cat := catalog.New(db, log)
	conv := cfg.Conversation
	engine, err := conversation.NewEngine(db, cat, ex, locker, m, conversation.Options{
		IntentConfidence:    conv.IntentConfidence,
		AskForNotes:         conv.AskForNotes,
		AutoCreateExercises: conv.AutoCreateExercises,
		UseBuiltinCatalog:   conv.UseBuiltinCatalog,
		RequireVerification: conv.RequireVerification,
		DashboardURL:        conv.DashboardURL,
		Phrases:             conversation.Phrases(conv.Phrases),
	}, log)
	if err != nil {
		log.Error("conversation setup failed", "error", err)
		os.Exit(1)
	}

	// Create server
	srv := server.New(engine, cat, db, cfg.Auth.APIKey, cfg.Auth.WebhookToken, log)
	if cfg.Metrics.Enabled {
		srv.MountMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mcpServer := mcp.New(&mcp.Local{
		Exercises: cat,
		Records:   db,
		Chat:      engine,
		Builtins:  conv.UseBuiltinCatalog,
	}, Version, log)
	srv.MountMCP(mcp.HTTPHandler(mcpServer))

	// Start server: tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
