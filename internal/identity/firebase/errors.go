package firebase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/examshaala/examshaala-portal/internal/identity"
)

// errorCodes maps Identity Toolkit error messages to normalized codes.
var errorCodes = map[string]identity.Code{
	"EMAIL_EXISTS":                identity.CodeEmailExists,
	"EMAIL_NOT_FOUND":             identity.CodeUserNotFound,
	"USER_NOT_FOUND":              identity.CodeUserNotFound,
	"INVALID_PASSWORD":            identity.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   identity.CodeInvalidCredential,
	"INVALID_ID_TOKEN":            identity.CodeInvalidCredential,
	"USER_DISABLED":               identity.CodeInvalidCredential,
	"INVALID_EMAIL":               identity.CodeInvalidEmail,
	"MISSING_EMAIL":               identity.CodeInvalidEmail,
	"WEAK_PASSWORD":               identity.CodeWeakPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": identity.CodeTooManyRequests,
	"INVALID_IDP_RESPONSE":        identity.CodeInvalidIDPResponse,
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError turns a non-200 response into a *identity.ProviderError.
func decodeError(status int, body []byte) error {
	if status >= http.StatusInternalServerError {
		return identity.NewError(identity.CodeNetworkFailed, fmt.Sprintf("status %d", status))
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Message == "" {
		return identity.NewError(identity.CodeInternal, fmt.Sprintf("status %d", status))
	}

	return identity.NewError(codeForMessage(env.Error.Message), env.Error.Message)
}

// codeForMessage normalizes messages such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func codeForMessage(msg string) identity.Code {
	key := msg
	if i := strings.Index(key, " "); i > 0 {
		key = key[:i]
	}
	if code, ok := errorCodes[key]; ok {
		return code
	}
	return identity.CodeInternal
}
