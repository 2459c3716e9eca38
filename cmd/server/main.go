package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/tablerolabs/tablero/internal/activity"
	"github.com/tablerolabs/tablero/internal/config"
	"github.com/tablerolabs/tablero/internal/database"
	"github.com/tablerolabs/tablero/internal/hub"
	"github.com/tablerolabs/tablero/internal/logging"
	"github.com/tablerolabs/tablero/internal/server"
)

func setupConfig() *config.Config {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub, pool *pgxpool.Pool) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		h.Stop()
		pool.Close()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)

	users := database.NewUserRepo(pool)
	boards := database.NewBoardRepo(pool)
	members := database.NewMemberRepo(pool)
	lists := database.NewListRepo(pool)
	tasks := database.NewTaskRepo(pool)
	records := database.NewActivityRepo(pool)

	h := hub.NewHub(clock)

	// The recorder runs inside the repos' save paths: every committed list,
	// task, and membership mutation writes its provisional record and goes
	// out to the board group.
	recorder := activity.NewRecorder(records, lists, boards, h, clock)
	boards.SetObserver(recorder)
	lists.SetObserver(recorder)
	tasks.SetObserver(recorder)
	members.SetObserver(recorder)

	attributor := activity.NewAttributor(records, clock)

	srv := server.NewServer(cfg, pool, server.Repositories{
		Users:    users,
		Boards:   boards,
		Members:  members,
		Lists:    lists,
		Tasks:    tasks,
		Activity: records,
	}, h, attributor)

	done := runGracefulShutdown(srv, h, pool)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Application stopped")
}
