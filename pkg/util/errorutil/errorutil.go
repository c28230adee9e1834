package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the ingestion pipeline. Parsing, resolution, extraction and
// attribution failures map to 400-class responses; downstream outages map to
// 502 so the upstream provider retries.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeUnsupportedStorage    = "UNSUPPORTED_STORAGE_MODE"
	CodeUnresolvableTicket    = "UNRESOLVABLE_TICKET"
	CodeEmptyContent          = "EMPTY_CONTENT"
	CodeAttributionImpossible = "ATTRIBUTION_IMPOSSIBLE"
	CodeDownstreamUnavailable = "DOWNSTREAM_UNAVAILABLE"
	CodeNotFound              = "NOT_FOUND"
	CodeInternal              = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewUnsupportedStorageMode flags provider payloads stored out-of-line, which
// the pipeline does not retrieve.
func NewUnsupportedStorageMode(mode string) error {
	return NewDomainError(CodeUnsupportedStorage,
		fmt.Sprintf("message content stored out-of-line (%s) is not supported", mode),
		http.StatusBadRequest, nil)
}

// NewUnresolvableTicket covers both "no short id found" and "short id matched
// no ticket (or more than one) within the scan cap".
func NewUnresolvableTicket(reason string) error {
	return NewDomainError(CodeUnresolvableTicket, reason, http.StatusBadRequest, nil)
}

// NewEmptyContent rejects messages whose body is blank after reply extraction.
func NewEmptyContent() error {
	return NewDomainError(CodeEmptyContent, "no extractable content in message body", http.StatusBadRequest, nil)
}

// NewAttributionImpossible is the only hard rejection in the authorization
// flow: the sender is unauthorized and the original submitter cannot be
// resolved either.
func NewAttributionImpossible(sender string) error {
	return NewDomainError(CodeAttributionImpossible,
		fmt.Sprintf("cannot attribute reply from %s: original submitter unresolvable", sender),
		http.StatusBadRequest, nil)
}

// NewDownstreamUnavailable wraps ticket-store or object-storage outages. The
// upstream provider is expected to retry these.
func NewDownstreamUnavailable(system string, err error) error {
	return &DomainError{
		Code:       CodeDownstreamUnavailable,
		Message:    fmt.Sprintf("%s unavailable", system),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
