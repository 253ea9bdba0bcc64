package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsIdentity(t *testing.T) {
	err := Wrap(ErrMemoValidationFailed, "id %q is not a UUIDv7", "abc")

	require.True(t, errors.Is(err, ErrMemoValidationFailed))
	require.False(t, errors.Is(err, ErrMemoNotFound))
	require.Equal(t, `id "abc" is not a UUIDv7`, err.Error())
	require.Equal(t, http.StatusBadRequest, err.Status)
	require.Equal(t, CodeMemoValidationFailed, err.Code)
}

func TestAsThroughFmtWrap(t *testing.T) {
	wrapped := fmt.Errorf("publishing: %w", ErrNeedLogin)

	e, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, CodeNeedLogin, e.Code)
	require.Equal(t, http.StatusUnauthorized, e.Status)

	_, ok = As(errors.New("boom"))
	require.False(t, ok)
}
