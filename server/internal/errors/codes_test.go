package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeRetrievalFailed, "catalog search failed")

	assert.Equal(t, "[RETRIEVAL_FAILED] catalog search failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[INVALID_ARGUMENT] text is required", InvalidArgument("text is required").Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{InvalidArgument("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusForbidden},
		{RateLimited("x"), http.StatusTooManyRequests},
		{NotConfigured("x"), http.StatusInternalServerError},
		{Wrap(errors.New("x"), ErrCodeProviderError, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestGetCodeFromError(t *testing.T) {
	wrapped := fmt.Errorf("handle: %w", RateLimited("slow down"))
	assert.Equal(t, ErrCodeRateLimited, GetCodeFromError(wrapped, ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(errors.New("plain"), ErrCodeInternal))
}
