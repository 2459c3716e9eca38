package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth
	s.echo.POST("/api/auth/register", s.handleRegister)
	s.echo.POST("/api/auth/login", s.handleLogin)

	// API routes (JWT protected)
	api := s.echo.Group("/api", s.requireAuth)
	api.GET("/boards", s.handleListBoards)
	api.POST("/boards", s.handleCreateBoard)
	api.GET("/boards/:id", s.handleGetBoard)
	api.PUT("/boards/:id", s.handleUpdateBoard)
	api.DELETE("/boards/:id", s.handleDeleteBoard)
	api.GET("/boards/:id/members", s.handleListMembers)
	api.GET("/boards/:id/lists", s.handleListLists)

	api.POST("/lists", s.handleCreateList)
	api.PUT("/lists/:id", s.handleUpdateList)
	api.DELETE("/lists/:id", s.handleDeleteList)
	api.GET("/lists/:id/tasks", s.handleListTasks)

	api.POST("/tasks", s.handleCreateTask)
	api.GET("/tasks/:id", s.handleGetTask)
	api.PUT("/tasks/:id", s.handleUpdateTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)

	api.GET("/activity", s.handleListActivity)

	// Board WebSocket (token via query param, anonymous allowed)
	s.echo.GET("/ws/boards/:id", s.handleBoardSocket)
}
