// Package errors defines the closed set of error kinds the core surfaces to
// HTTP handlers, each carrying the HTTP status it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one of the error kinds named in the design: it is not a Go
// type, just a label carried on ServiceError so handlers can switch on it.
type Kind string

const (
	KindUnauthorized     Kind = "Unauthorized"
	KindUnknownInterface Kind = "UnknownInterface"
	KindInvalidParams    Kind = "InvalidParameters"
	KindUpstreamTimeout  Kind = "UpstreamTimeout"
	KindUpstreamError    Kind = "UpstreamError"
	KindResultTooLarge   Kind = "ResultTooLarge"
	KindCacheIOError     Kind = "CacheIOError"
	KindPathViolation    Kind = "PathViolation"
	KindTooLarge         Kind = "TooLarge"
	KindNotFound         Kind = "NotFound"
	KindParseError       Kind = "ParseError"
	KindModelUnreachable Kind = "ModelUnreachable"
	KindInternal         Kind = "Internal"
	KindRateLimited      Kind = "RateLimited"

	// The following three distinguish token validation failure modes at
	// the component level (§4.2). C10 maps all of them to the same coarse
	// 401 response — the distinction exists for callers of Validate, not
	// for the HTTP client.
	KindTokenMalformed        Kind = "TokenMalformed"
	KindTokenInvalidSignature Kind = "TokenInvalidSignature"
	KindTokenExpired          Kind = "TokenExpired"
)

var statusByKind = map[Kind]int{
	KindUnauthorized:     http.StatusUnauthorized,
	KindUnknownInterface: http.StatusBadRequest,
	KindInvalidParams:    http.StatusBadRequest,
	KindUpstreamTimeout:  http.StatusGatewayTimeout,
	KindUpstreamError:    http.StatusBadGateway,
	KindResultTooLarge:   http.StatusRequestEntityTooLarge,
	KindCacheIOError:     http.StatusInternalServerError,
	KindPathViolation:    http.StatusBadRequest,
	KindTooLarge:         http.StatusRequestEntityTooLarge,
	KindNotFound:         http.StatusNotFound,
	KindParseError:       http.StatusBadRequest,
	KindModelUnreachable: http.StatusBadGateway,
	KindInternal:         http.StatusInternalServerError,
	KindRateLimited:      http.StatusTooManyRequests,

	KindTokenMalformed:        http.StatusUnauthorized,
	KindTokenInvalidSignature: http.StatusUnauthorized,
	KindTokenExpired:          http.StatusUnauthorized,
}

// ServiceError is the error type every core operation returns for a failure
// mode named in the design. Handlers map it to the user-visible envelope
// {detail: ...} and its HTTPStatus, never echoing Err's internal detail.
type ServiceError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// HTTPStatus returns the status code this error maps to.
func (e *ServiceError) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New constructs a ServiceError of the given kind.
func New(kind Kind, message string, cause error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Err: cause}
}

// Is reports whether err is a ServiceError of the given kind.
func Is(err error, kind Kind) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to KindInternal when err is
// not a ServiceError.
func KindOf(err error) Kind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func Unauthorized(msg string) *ServiceError     { return New(KindUnauthorized, msg, nil) }
func UnknownInterface(msg string) *ServiceError { return New(KindUnknownInterface, msg, nil) }
func InvalidParams(msg string) *ServiceError    { return New(KindInvalidParams, msg, nil) }
func UpstreamTimeout(msg string) *ServiceError  { return New(KindUpstreamTimeout, msg, nil) }
func UpstreamError(msg string, cause error) *ServiceError {
	return New(KindUpstreamError, msg, cause)
}
func ResultTooLarge(msg string) *ServiceError { return New(KindResultTooLarge, msg, nil) }
func CacheIOError(msg string, cause error) *ServiceError {
	return New(KindCacheIOError, msg, cause)
}
func PathViolation(msg string) *ServiceError { return New(KindPathViolation, msg, nil) }
func TooLarge(msg string) *ServiceError       { return New(KindTooLarge, msg, nil) }
func NotFound(msg string) *ServiceError       { return New(KindNotFound, msg, nil) }
func ParseError(msg string, cause error) *ServiceError {
	return New(KindParseError, msg, cause)
}
func ModelUnreachable(msg string, cause error) *ServiceError {
	return New(KindModelUnreachable, msg, cause)
}
func Internal(msg string, cause error) *ServiceError { return New(KindInternal, msg, cause) }
func RateLimited(msg string) *ServiceError            { return New(KindRateLimited, msg, nil) }

func TokenMalformed(msg string) *ServiceError        { return New(KindTokenMalformed, msg, nil) }
func TokenInvalidSignature(msg string) *ServiceError { return New(KindTokenInvalidSignature, msg, nil) }
func TokenExpired(msg string) *ServiceError          { return New(KindTokenExpired, msg, nil) }
