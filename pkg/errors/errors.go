package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of a failure
type ErrorType string

const (
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeRateLimitExceeded ErrorType = "rate_limit_exceeded"
	ErrorTypeAPI               ErrorType = "api"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeParsing           ErrorType = "parsing"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeUnavailable       ErrorType = "unavailable"
	ErrorTypeCacheWrite        ErrorType = "cache_write"
	ErrorTypeCacheRead         ErrorType = "cache_read"
)

// API names used to tell the caller which side of the run failed
const (
	APIPrimary   = "dev.to"
	APISecondary = "github"
)

// Credential names reported with authentication errors
const (
	CredentialAPIKey      = "api key"
	CredentialGitHubToken = "github token"
)

// Error is the single error type returned by the API clients and the cache layer
type Error struct {
	Type       ErrorType
	API        string
	Credential string
	Message    string
	Code       int
	Page       int
	Err        error
}

// Sentinels for errors.Is; they match any *Error of the same type.
var (
	ErrAuthentication    = &Error{Type: ErrorTypeAuth}
	ErrRateLimited       = &Error{Type: ErrorTypeRateLimit}
	ErrRateLimitExceeded = &Error{Type: ErrorTypeRateLimitExceeded}
	ErrAPI               = &Error{Type: ErrorTypeAPI}
	ErrNetwork           = &Error{Type: ErrorTypeNetwork}
	ErrUnavailable       = &Error{Type: ErrorTypeUnavailable}
	ErrCacheWrite        = &Error{Type: ErrorTypeCacheWrite}
	ErrCacheRead         = &Error{Type: ErrorTypeCacheRead}
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.API != "" {
		b.WriteString(e.API)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%s error", e.Type)
	if e.Code != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Code)
	}
	if e.Page > 0 {
		fmt.Fprintf(&b, " on page %d", e.Page)
	}
	if e.Credential != "" {
		fmt.Fprintf(&b, " [credential: %s]", e.Credential)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Authentication builds an authentication failure for the given API
func Authentication(api, credential, message string, code int) *Error {
	return &Error{
		Type:       ErrorTypeAuth,
		API:        api,
		Credential: credential,
		Message:    message,
		Code:       code,
	}
}

// RateLimitExceeded builds the error returned once the retry ceiling is hit
func RateLimitExceeded(api string, page, attempts int) *Error {
	return &Error{
		Type:    ErrorTypeRateLimitExceeded,
		API:     api,
		Page:    page,
		Message: fmt.Sprintf("still rate limited after %d attempts", attempts),
	}
}

// API builds a non-retryable status error
func API(api string, status, page int, message string) *Error {
	return &Error{
		Type:    ErrorTypeAPI,
		API:     api,
		Code:    status,
		Page:    page,
		Message: message,
	}
}

// RateLimited marks a single rate-limited response; it is retried, never returned
// to the caller of a paginated fetch.
func RateLimited(api string, status, page int) *Error {
	return &Error{
		Type: ErrorTypeRateLimit,
		API:  api,
		Code: status,
		Page: page,
	}
}

// IsRetryable checks if an error type should be retried. Only rate-limited
// responses are; auth, status and transport failures surface immediately.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeRateLimit
}
