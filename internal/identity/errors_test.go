package identity

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("login: %w", NewError(CodeUserNotFound, "EMAIL_NOT_FOUND"))
	if got := CodeOf(err); got != CodeUserNotFound {
		t.Errorf("expected %s, got %s", CodeUserNotFound, got)
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != "" {
		t.Errorf("expected empty code, got %s", got)
	}
}

func TestNetworkError_Unwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NetworkError(cause)
	if !errors.Is(err, cause) {
		t.Error("expected network error to unwrap to its cause")
	}
	if err.Code != CodeNetworkFailed {
		t.Errorf("expected %s, got %s", CodeNetworkFailed, err.Code)
	}
}
