package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeJobRunning, http.StatusConflict},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{"ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetHTTPStatus(tt.code), tt.code)
	}
}

func TestErrorResponseEncoding(t *testing.T) {
	raw, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "job payroll not registered", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {"code": "ERR_NOT_FOUND", "message": "job payroll not registered", "request_id": "req-1"}
	}`, string(raw))

	raw, err = json.Marshal(NewSuccessResponse(map[string]int{"count": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "data": {"count": 2}}`, string(raw))
}
