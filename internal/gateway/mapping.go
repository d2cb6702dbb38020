package gateway

import (
	"github.com/examshaala/examshaala-portal/internal/identity"
)

// reasonTables maps normalized provider codes to reasons per operation.
// Codes absent from an operation's table map to ReasonUnknown.
var reasonTables = map[Op]map[identity.Code]Reason{
	OpRegister: {
		identity.CodeEmailExists:   ReasonEmailTaken,
		identity.CodeInvalidEmail:  ReasonInvalidEmail,
		identity.CodeWeakPassword:  ReasonWeakPassword,
		identity.CodeNetworkFailed: ReasonNetworkUnavailable,
	},
	OpLogin: {
		identity.CodeUserNotFound:      ReasonNotFound,
		identity.CodeWrongPassword:     ReasonWrongCredential,
		identity.CodeInvalidCredential: ReasonInvalidCredential,
		identity.CodeInvalidEmail:      ReasonInvalidEmail,
		identity.CodeTooManyRequests:   ReasonTooManyAttempts,
		identity.CodeNetworkFailed:     ReasonNetworkUnavailable,
	},
	OpFederated: {
		identity.CodeCancelled:     ReasonInteractionCancelled,
		identity.CodePopupBlocked:  ReasonInteractionBlocked,
		identity.CodeNetworkFailed: ReasonNetworkUnavailable,
	},
	OpReset: {
		identity.CodeUserNotFound:  ReasonNotFound,
		identity.CodeInvalidEmail:  ReasonInvalidEmail,
		identity.CodeNetworkFailed: ReasonNetworkUnavailable,
	},
}

func kindOf(r Reason) Kind {
	switch r {
	case ReasonInvalidInput, ReasonInvalidName:
		return KindValidation
	case ReasonNetworkUnavailable:
		return KindAvailability
	case ReasonInteractionCancelled, ReasonInteractionBlocked:
		return KindInteraction
	default:
		return KindCredential
	}
}

// providerFailure wraps a provider error as a gateway error for op.
func providerFailure(op Op, err error) *Error {
	reason, ok := reasonTables[op][identity.CodeOf(err)]
	if !ok {
		reason = ReasonUnknown
	}
	return &Error{Op: op, Reason: reason, Kind: kindOf(reason), Err: err}
}
