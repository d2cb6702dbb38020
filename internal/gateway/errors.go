package gateway

import (
	"errors"
	"fmt"
)

// Op names a gateway operation.
type Op string

const (
	OpRegister  Op = "register"
	OpLogin     Op = "login"
	OpFederated Op = "federated"
	OpReset     Op = "reset"
)

// Reason is the closed set of user-facing failure reasons.
type Reason string

const (
	ReasonInvalidInput         Reason = "InvalidInput"
	ReasonWeakPassword         Reason = "WeakPassword"
	ReasonInvalidName          Reason = "InvalidName"
	ReasonEmailTaken           Reason = "EmailTaken"
	ReasonInvalidEmail         Reason = "InvalidEmail"
	ReasonNotFound             Reason = "NotFound"
	ReasonWrongCredential      Reason = "WrongCredential"
	ReasonInvalidCredential    Reason = "InvalidCredential"
	ReasonTooManyAttempts      Reason = "TooManyAttempts"
	ReasonNetworkUnavailable   Reason = "NetworkUnavailable"
	ReasonInteractionCancelled Reason = "InteractionCancelled"
	ReasonInteractionBlocked   Reason = "InteractionBlocked"
	ReasonUnknown              Reason = "Unknown"
)

// Kind classifies a failure for callers that only care about its family.
type Kind string

const (
	// KindValidation failures are caught before any provider call.
	KindValidation   Kind = "Validation"
	KindCredential   Kind = "Credential"
	KindAvailability Kind = "Availability"
	KindInteraction  Kind = "Interaction"
)

// ErrFederatedDisabled is wrapped when no consent flow is configured.
var ErrFederatedDisabled = errors.New("federated sign-in is not configured")

// Error is returned by every failing gateway operation.
type Error struct {
	Op     Op
	Reason Reason
	Kind   Kind
	// Err is the underlying provider or transport error, for logs only.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the single user-facing sentence for this failure. It never
// includes provider internals.
func (e *Error) Message() string {
	if e.Kind != KindValidation {
		if msg, ok := providerMessages[e.Op][e.Reason]; ok {
			return msg
		}
	}
	return FailureMessage(e.Op, e.Reason)
}

func validationError(op Op, reason Reason) *Error {
	return &Error{Op: op, Reason: reason, Kind: KindValidation}
}

// ReasonOf extracts the reason from err, or "" if err is not a gateway error.
func ReasonOf(err error) Reason {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Reason
	}
	return ""
}

// MessageOf returns the user-facing sentence for any error returned by op.
func MessageOf(op Op, err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message()
	}
	return FailureMessage(op, ReasonUnknown)
}
