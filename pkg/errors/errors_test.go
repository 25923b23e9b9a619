package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := ErrValidation("slot code is malformed")
	assert.Equal(t, "VALIDATION_ERROR: slot code is malformed", err.Error())

	wrapped := ErrInternal("failed to save plan").Wrap(stderrors.New("connection reset"))
	assert.Equal(t, "INTERNAL_ERROR: failed to save plan: connection reset", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := ErrInternal("something broke").Wrap(cause)

	assert.ErrorIs(t, err, cause)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", ErrValidation("bad input"), CodeValidationError, http.StatusBadRequest},
		{"not found", ErrNotFound("reorg plan"), CodeNotFound, http.StatusNotFound},
		{"conflict", ErrConflict("plan already executed"), CodeConflict, http.StatusConflict},
		{"internal", ErrInternal(""), CodeInternalError, http.StatusInternalServerError},
		{"bad request", ErrBadRequest("malformed body"), CodeBadRequest, http.StatusBadRequest},
		{"unavailable", ErrServiceUnavailable("mongodb"), CodeServiceUnavailable, http.StatusServiceUnavailable},
		{"timeout", ErrTimeout("plan execution"), CodeTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestErrNotFoundWithID(t *testing.T) {
	err := ErrNotFoundWithID("reorg plan", "PLAN-abc123")

	assert.Equal(t, "reorg plan not found", err.Message)
	assert.Equal(t, "PLAN-abc123", err.Details["id"])
}

func TestWithDetail(t *testing.T) {
	err := ErrValidation("invalid target layout").
		WithDetail("slot", "R1C9").
		WithDetail("reason", "row 1 has 7 columns")

	assert.Len(t, err.Details, 2)
	assert.Equal(t, "R1C9", err.Details["slot"])
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(ErrConflict("nope"))
	require.True(t, ok)
	assert.Equal(t, CodeConflict, appErr.Code)

	// AppError found through a wrapping chain
	chained := fmt.Errorf("handler: %w", ErrNotFound("slot"))
	appErr, ok = AsAppError(chained)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	appErr := ErrValidation("bad")
	assert.Same(t, appErr, FromError(appErr))

	converted := FromError(stderrors.New("mystery"))
	assert.Equal(t, CodeInternalError, converted.Code)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", stderrors.New("reorg plan not found"), CodeNotFound},
		{"conflict", stderrors.New("reorg plan already executed"), CodeConflict},
		{"invalid", stderrors.New("invalid slot code: X3"), CodeValidationError},
		{"required", stderrors.New("wineId is required"), CodeValidationError},
		{"timeout", stderrors.New("transaction timeout"), CodeTimeout},
		{"unknown", stderrors.New("disk on fire"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDomainError(tt.err)
			assert.Equal(t, tt.code, mapped.Code)
			assert.ErrorIs(t, mapped, tt.err)
		})
	}

	// An AppError passes through untouched
	appErr := ErrConflict("already executed")
	assert.Same(t, appErr, MapDomainError(appErr))

	assert.Nil(t, MapDomainError(nil))
}
