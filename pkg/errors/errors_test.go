package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeUsageExceeded, http.StatusConflict},
		{CodeProviderRejected, http.StatusPaymentRequired},
		{CodeProviderUnavailable, http.StatusServiceUnavailable},
		{CodeStateConflict, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus, string(tc.code))
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "calling gateway")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "DEPENDENCY_ERROR: calling gateway", err.Error())
}

func TestAsUnwrapsNestedTypedError(t *testing.T) {
	inner := New(CodeUsageExceeded, "coupon cap hit")
	wrapped := Wrap(CodeDependency, inner, "redeem coupon")

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeDependency, typed.Code())

	assert.True(t, HasCode(wrapped, CodeDependency))
	assert.False(t, HasCode(nil, CodeDependency))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad payload").WithDetails(map[string]string{"code": "is required"})
	require.NotNil(t, err.Details())

	meta := MetadataFor(err.Code())
	assert.True(t, meta.DetailsAllowed)
}
