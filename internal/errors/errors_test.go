package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid request: bad dias", ErrBadRequest("bad dias", nil).Error())
	assert.Equal(t, "Request timeout: boom", ErrGatewayTimeout("slow", stderrors.New("boom")).Error())
	assert.Equal(t, "Resource not found", NewAppError(http.StatusNotFound, 40400, "Resource not found", nil).Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("fetch detail: %w", ErrServiceUnavailable("request error", cause))

	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, 50300, appErr.Code)
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		code      int
		httpCode  int
		retryable bool
	}{
		{http.StatusTooManyRequests, 42900, http.StatusTooManyRequests, true},
		{http.StatusNotFound, 40400, http.StatusNotFound, false},
		{http.StatusUnauthorized, 50200, http.StatusBadGateway, false},
		{http.StatusForbidden, 50200, http.StatusBadGateway, false},
		{http.StatusBadGateway, 50200, http.StatusBadGateway, true},
		{http.StatusInternalServerError, 50200, http.StatusBadGateway, true},
		{http.StatusBadRequest, 50200, http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "magazord")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.httpCode, GetStatusCode(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.status, err.Metadata["external_status_code"])
		})
	}
}

func TestFromStatusCredentialsHint(t *testing.T) {
	err := FromStatus(http.StatusUnauthorized, "magazord /v2/site/pedido: status 401")
	assert.Contains(t, err.Details, "MAGAZORD_USER")
}

func TestIsRetryableAndStatusCodeOnPlainErrors(t *testing.T) {
	plain := stderrors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(plain))
	assert.False(t, IsRetryable(ErrServiceUnavailable("circuit open", nil).WithRetryable(false)))
}

func TestWithMetadataInitializesMap(t *testing.T) {
	err := (&AppError{Message: "x"}).WithMetadata("order_id", "123")
	assert.Equal(t, "123", err.Metadata["order_id"])
}
