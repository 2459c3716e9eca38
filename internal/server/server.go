package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tablerolabs/tablero/internal/activity"
	"github.com/tablerolabs/tablero/internal/config"
	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/hub"
)

// Repositories bundles the storage interfaces the server depends on.
type Repositories struct {
	Users    domain.UserRepository
	Boards   domain.BoardRepository
	Members  domain.MemberRepository
	Lists    domain.ListRepository
	Tasks    domain.TaskRepository
	Activity domain.ActivityRepository
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	pool       *pgxpool.Pool
	repos      Repositories
	hub        *hub.Hub
	attributor *activity.Attributor
	startTime  time.Time
}

func NewServer(cfg *config.Config, pool *pgxpool.Pool, repos Repositories, h *hub.Hub, attributor *activity.Attributor) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	srv := &Server{
		echo:       e,
		config:     cfg,
		pool:       pool,
		repos:      repos,
		hub:        h,
		attributor: attributor,
		startTime:  time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
