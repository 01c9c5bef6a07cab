// Package domainerrors defines the typed error vocabulary shared by services
// and transport. Services attach a Code; the HTTP layer maps codes to status
// lines without inspecting message text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Codes are stable strings and appear
// verbatim in API error envelopes.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal_error"

	// Fulfillment pipeline taxonomy. All are terminal for the current
	// request; nothing is retried by the server.
	CodeNotPaid          Code = "not_paid"
	CodeIdentityMismatch Code = "identity_mismatch"
	CodeNoEntitlements   Code = "no_entitlements"
	CodeAssetMissing     Code = "asset_missing"
	CodeAssetFetch       Code = "asset_fetch_failed"
	CodePackaging        Code = "packaging_failed"
	CodeUpload           Code = "upload_failed"
	CodeLedgerWrite      Code = "ledger_write_failed"
)

// Error carries a code, a human-readable message, optional metadata and the
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithMeta attaches a metadata key/value, returning the same error for
// chaining.
func (e *Error) WithMeta(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string, 1)
	}
	e.Meta[key] = value
	return e
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// GetCode extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Meta returns the metadata value for key from the first coded error in the
// chain, or "" when absent.
func Meta(err error, key string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Meta[key]
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeNoEntitlements:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeIdentityMismatch:
		return http.StatusForbidden
	case CodeNotFound, CodeAssetMissing:
		return http.StatusNotFound
	case CodeNotPaid:
		return http.StatusPaymentRequired
	case CodeAssetFetch, CodeUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
