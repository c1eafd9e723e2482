package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, KindBadRequest.Status())
	require.Equal(t, http.StatusUnauthorized, KindUnauthorized.Status())
	require.Equal(t, http.StatusNotFound, KindNotFound.Status())
	require.Equal(t, http.StatusConflict, KindConflict.Status())
	require.Equal(t, http.StatusInternalServerError, KindInternal.Status())
}

func TestWrappingKeepsKind(t *testing.T) {
	cause := errors.New("db down")
	err := fmt.Errorf("outer: %w", Internal("something went wrong", cause))

	require.Equal(t, KindInternal, KindOf(err))
	require.ErrorIs(t, err, cause)
	require.True(t, Is(fmt.Errorf("x: %w", Conflict("taken")), KindConflict))
	require.False(t, Is(errors.New("plain"), KindNotFound))
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
	require.Equal(t, "invalid", BadRequest("invalid").Error())
}
