package dto

import "net/http"

// Error codes, format ERR_<DESCRIPTION>
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	// ErrCodeJobRunning is returned when a manual run overlaps a run in progress
	ErrCodeJobRunning = "ERR_JOB_RUNNING"
	// ErrCodeUnavailable is returned while the worker is starting or draining
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
	ErrCodeTimeout     = "ERR_TIMEOUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeJobRunning:   http.StatusConflict,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,
	ErrCodeTimeout:      http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
