package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{UnauthorizedError("no token"), http.StatusUnauthorized},
		{NotFoundError("missing"), http.StatusNotFound},
		{ConflictError("taken"), http.StatusConflict},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := InternalError("db failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithContext(t *testing.T) {
	err := NotFoundError("board not found").WithContext("board_id", "abc")

	resp := err.ToResponse()
	assert.Equal(t, "board not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "abc", resp.Context["board_id"])
}

func TestAsStructuredError_PassesThrough(t *testing.T) {
	original := ConflictError("username taken")

	got := AsStructuredError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, got)
}

func TestAsStructuredError_WrapsUnknown(t *testing.T) {
	cause := stderrors.New("surprise")

	got := AsStructuredError(cause)
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.ErrorIs(t, got, cause)
}

func TestAsStructuredError_Nil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}
