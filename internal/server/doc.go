// Package server implements the HTTP server using Echo framework.
//
// Routes: auth (register/login, JWT), board/list/task CRUD, activity feed,
// board WebSocket, health and metrics. Handlers split by domain:
// handlers_auth.go, handlers_boards.go, handlers_lists.go, handlers_tasks.go,
// handlers_activity.go, handlers_ws.go.
package server
