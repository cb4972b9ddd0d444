package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/me/reel/internal/config"
	"github.com/me/reel/internal/logging"
	"github.com/me/reel/internal/scenario"
	"github.com/me/reel/internal/script"
	"github.com/me/reel/internal/server"
	"github.com/me/reel/internal/session"
	"github.com/me/reel/internal/store"
	"github.com/me/reel/pkg/timeline"
)

func main() {
	// Load .env if present; flags still win over the environment.
	godotenv.Load()

	cfg := config.FromEnv()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.reel/reel.db)")
	flag.IntVar(&cfg.FrameRate, "fps", cfg.FrameRate, "Session tick rate in frames per second")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".reel")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "reel.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// One evaluator serves validation and live sessions, so programs
	// compiled at push time are cache hits at build time.
	eval, err := script.NewEvaluator(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "script evaluator: %v\n", err)
		os.Exit(1)
	}

	sessions := session.NewManager(
		scenario.NewBuilder(eval, logger),
		session.NewBroker(),
		logger,
		timeline.WithFrames(timeline.NewTickerFrames(cfg.FrameInterval())),
		timeline.WithLogger(logger),
	)

	srv := server.New(cfg, st, sessions, eval, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "fps", cfg.FrameRate)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Pause live sessions before the listener goes away, so no frame
	// callbacks race the teardown.
	sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
