package server

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/errors"
	"github.com/tablerolabs/tablero/internal/logging"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// handleRegister creates the account and adds it as a member to every
// existing board, so each board group sees a member_added broadcast.
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Username == "" || req.Email == "" {
		return respondError(c, errors.ValidationError("username and email are required"))
	}
	if len(req.Password) < 8 {
		return respondError(c, errors.ValidationError("password must be at least 8 characters"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, errors.InternalError("failed to hash password", err))
	}

	ctx := c.Request().Context()
	user, err := s.repos.Users.Create(ctx, req.Username, req.Email, string(hash))
	if stderrors.Is(err, domain.ErrUsernameTaken) {
		return respondError(c, errors.ConflictError("username or email already taken"))
	}
	if err != nil {
		return respondError(c, err)
	}

	// New members join every board. Add fires the member_added broadcast per
	// board; a failed board is logged and skipped, registration still succeeds.
	boards, err := s.repos.Boards.List(ctx)
	if err != nil {
		logging.WithUser(user.ID.String()).Error("Failed to list boards for new member", "error", err)
	}
	for _, board := range boards {
		if _, err := s.repos.Members.Add(ctx, board.ID, user.ID, domain.RoleMember); err != nil {
			logging.WithUser(user.ID.String()).Error("Failed to add new user to board", "board_id", board.ID.String(), "error", err)
		}
	}

	token, err := s.issueToken(user.ID, user.Username)
	if err != nil {
		return respondError(c, errors.InternalError("failed to issue token", err))
	}

	return c.JSON(http.StatusCreated, authResponse{
		Token: token,
		User:  userResponse{ID: user.ID.String(), Username: user.Username, Email: user.Email},
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}

	ctx := c.Request().Context()
	user, err := s.repos.Users.GetByUsername(ctx, req.Username)
	if stderrors.Is(err, domain.ErrNotFound) {
		return respondError(c, errors.UnauthorizedError("invalid credentials"))
	}
	if err != nil {
		return respondError(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return respondError(c, errors.UnauthorizedError("invalid credentials"))
	}

	token, err := s.issueToken(user.ID, user.Username)
	if err != nil {
		return respondError(c, errors.InternalError("failed to issue token", err))
	}

	return c.JSON(http.StatusOK, authResponse{
		Token: token,
		User:  userResponse{ID: user.ID.String(), Username: user.Username, Email: user.Email},
	})
}
