package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrorType categorizes completion failures for logs and metrics.
type ErrorType string

const (
	ErrorTypeUnknown      ErrorType = "unknown"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeOverloaded   ErrorType = "overloaded"
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeBilling      ErrorType = "billing"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeFormat       ErrorType = "format"
	ErrorTypeNoCandidates ErrorType = "no_candidates"
	ErrorTypeEmpty        ErrorType = "empty"
)

// ClassifyError determines the error type of a completion failure.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	if errors.Is(err, ErrNoCandidates) {
		return ErrorTypeNoCandidates
	}
	if errors.Is(err, ErrMalformedResponse) {
		return ErrorTypeFormat
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage matches an error message against known provider patterns.
// Order matters: a 429 body often also mentions billing.
func ClassifyMessage(msg string) ErrorType {
	lower := strings.ToLower(msg)
	switch {
	case lower == "":
		return ErrorTypeUnknown
	case containsAny(lower, "429", "rate limit", "rate_limit", "too many requests",
		"resource_exhausted", "resource has been exhausted", "quota exceeded"):
		return ErrorTypeRateLimit
	case containsAny(lower, "overloaded", "server is busy", "temporarily unavailable", "unavailable (status"):
		return ErrorTypeOverloaded
	case containsAny(lower, "402", "billing", "insufficient_quota", "payment required"):
		return ErrorTypeBilling
	case containsAny(lower, "401", "403", "api key not valid", "invalid api key", "invalid_api_key",
		"unauthenticated", "permission_denied", "unauthorized", "forbidden"):
		return ErrorTypeAuth
	case containsAny(lower, "timeout", "timed out", "deadline exceeded", "504"):
		return ErrorTypeTimeout
	case containsAny(lower, "invalid_argument", "invalid_request_error", "malformed", "parse response"):
		return ErrorTypeFormat
	}
	return ErrorTypeUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
