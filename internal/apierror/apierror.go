// Package apierror holds the JSON bodies of every 4xx/5xx response. Detail is
// for humans; Code is stable and meant for clients such as RFID readers to
// branch on.
package apierror

const (
	CodeValidation        = "validation_failed"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeInsufficientStock = "insufficient_stock"
	CodeInvalidState      = "invalid_state"
	CodeConflict          = "conflict"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

// Internal is the only message a client sees for an unexpected fault.
const Internal = "internal server error"

type APIError struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithCode(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// ValidationError lists failing fields by wire name and the rule each broke.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Detail: "validation failed", Fields: fields}
}
