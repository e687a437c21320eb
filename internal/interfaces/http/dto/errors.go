package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeConfiguration is used when the server setup prevents rendering
	ErrCodeConfiguration = "ERR_CONFIGURATION"
)

// Request error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Print error codes
const (
	// ErrCodeInputInvalid is used when neither URL nor content is usable
	ErrCodeInputInvalid = "ERR_INPUT_INVALID"
	// ErrCodeUnknownOption is used for option names outside the whitelist
	ErrCodeUnknownOption = "ERR_UNKNOWN_OPTION"
	// ErrCodeInvalidOptionValue is used when an option value fails its check
	ErrCodeInvalidOptionValue = "ERR_INVALID_OPTION_VALUE"
	// ErrCodeRenderFailed is used when wkhtmltopdf exits non-zero
	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
	// ErrCodeRenderTimeout is used when wkhtmltopdf exceeds its deadline
	ErrCodeRenderTimeout = "ERR_RENDER_TIMEOUT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeMissingCredentials = "ERR_MISSING_CREDENTIALS"
	ErrCodeLoginFailed        = "ERR_LOGIN_FAILED"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:       http.StatusInternalServerError,
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeConfiguration: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeInputInvalid:       http.StatusBadRequest,
	ErrCodeUnknownOption:      http.StatusBadRequest,
	ErrCodeInvalidOptionValue: http.StatusBadRequest,

	// Renderer failures -> 503 Service Unavailable
	ErrCodeRenderFailed:  http.StatusServiceUnavailable,
	ErrCodeRenderTimeout: http.StatusServiceUnavailable,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeMissingCredentials: http.StatusUnauthorized,
	ErrCodeLoginFailed:        http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps the codes carried by domain and renderer errors
// to API error codes.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_INPUT":  ErrCodeBadRequest,
	"UNAUTHORIZED":   ErrCodeUnauthorized,
	"INTERNAL_ERROR": ErrCodeInternal,

	"MISSING_CREDENTIALS": ErrCodeMissingCredentials,
	"LOGIN_FAILED":        ErrCodeLoginFailed,

	"INPUT_INVALID":        ErrCodeInputInvalid,
	"UNKNOWN_OPTION":       ErrCodeUnknownOption,
	"INVALID_OPTION_VALUE": ErrCodeInvalidOptionValue,

	"RENDER_FAILED":       ErrCodeRenderFailed,
	"RENDER_TIMEOUT":      ErrCodeRenderTimeout,
	"BINARY_NOT_FOUND":    ErrCodeConfiguration,
	"SCRATCH_UNAVAILABLE": ErrCodeConfiguration,
	"STORAGE_FAILED":      ErrCodeConfiguration,
	"INVALID_JOB":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown ones, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
