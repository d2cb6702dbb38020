// Package identity defines the failure vocabulary shared by identity provider
// adapters.
package identity

import (
	"errors"
	"fmt"
)

// Code is a normalized identity provider failure code.
type Code string

const (
	CodeEmailExists        Code = "email-already-in-use"
	CodeUserNotFound       Code = "user-not-found"
	CodeWrongPassword      Code = "wrong-password"
	CodeInvalidCredential  Code = "invalid-credential"
	CodeInvalidEmail       Code = "invalid-email"
	CodeWeakPassword       Code = "weak-password"
	CodeTooManyRequests    Code = "too-many-requests"
	CodeNetworkFailed      Code = "network-request-failed"
	CodeCancelled          Code = "cancelled-popup-request"
	CodePopupBlocked       Code = "popup-blocked"
	CodeInvalidIDPResponse Code = "invalid-idp-response"
	CodeInternal           Code = "internal-error"
)

// ProviderError is a failure reported by an identity provider.
type ProviderError struct {
	Code Code
	// Detail is the raw provider message. It is for logs only.
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("identity provider: %s (%s)", e.Code, e.Detail)
	}
	return fmt.Sprintf("identity provider: %s", e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewError creates a ProviderError with the given code and detail.
func NewError(code Code, detail string) *ProviderError {
	return &ProviderError{Code: code, Detail: detail}
}

// NetworkError wraps a transport failure.
func NetworkError(err error) *ProviderError {
	return &ProviderError{Code: CodeNetworkFailed, Detail: err.Error(), Err: err}
}

// CodeOf extracts the provider code from err, or "" if err is not a
// ProviderError.
func CodeOf(err error) Code {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
