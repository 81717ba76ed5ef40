package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := LoadFailed("no resolvable audio source")
	assert.True(t, Is(err, ErrLoadFailed))
	assert.False(t, Is(err, ErrNotLoaded))
}

func TestError_WrappingPreservesCode(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := Wrap(cause, CodePlayback, "engine died mid-stream")

	assert.True(t, Is(err, ErrPlayback))
	assert.Equal(t, cause, Unwrap(err))
	assert.Contains(t, err.Error(), "socket closed")
}

func TestError_WithCauseDoesNotMutate(t *testing.T) {
	base := StaleChapter("chapter from another unit")
	wrapped := base.WithCause(stderrors.New("boom"))

	require.NotSame(t, base, wrapped)
	assert.Nil(t, Unwrap(base))
	assert.NotNil(t, Unwrap(wrapped))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeStaleChapter, http.StatusBadRequest},
		{CodeNotLoaded, http.StatusBadRequest},
		{CodeAlreadyInProgress, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeLoadFailed, http.StatusBadGateway},
		{CodePlayback, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_AsExtractsDomainError(t *testing.T) {
	var err error = AlreadyInProgress("promote already running").WithDetails(map[string]string{"unit_id": "unit-x"})

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeAlreadyInProgress, domainErr.Code)
	assert.NotNil(t, domainErr.Details)
}
