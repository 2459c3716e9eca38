package server

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tablerolabs/tablero/internal/errors"
)

const tokenTTL = 24 * time.Hour

// Context keys set by the auth middleware.
const (
	ctxKeyUserID   = "userID"
	ctxKeyUsername = "username"
)

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID uuid.UUID, username string) (string, error) {
	claims := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// parseToken validates a signed token and returns the user ID and username.
func (s *Server) parseToken(raw string) (uuid.UUID, string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.UnauthorizedError("unexpected signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return uuid.Nil, "", errors.UnauthorizedError("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", errors.UnauthorizedError("invalid token subject")
	}
	return userID, claims.Username, nil
}

// requireAuth guards API routes. The bearer token's user ID and username land
// in the request context for handlers.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return respondError(c, errors.UnauthorizedError("missing bearer token"))
		}

		userID, username, err := s.parseToken(raw)
		if err != nil {
			return respondError(c, err)
		}

		c.Set(ctxKeyUserID, userID)
		c.Set(ctxKeyUsername, username)
		return next(c)
	}
}

func currentUserID(c echo.Context) uuid.UUID {
	return c.Get(ctxKeyUserID).(uuid.UUID)
}

// respondError maps any error to the structured JSON error response.
func respondError(c echo.Context, err error) error {
	structured := errors.AsStructuredError(err)
	return c.JSON(structured.HTTPStatus(), structured.ToResponse())
}
