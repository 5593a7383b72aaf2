package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Wrap(KindTimeout, "waiting for prompt", fmt.Errorf("deadline exceeded"))
	if !errors.Is(err, Timeout) {
		t.Error("expected errors.Is to match the Timeout sentinel")
	}
	if errors.Is(err, NavigationLost) {
		t.Error("did not expect errors.Is to match a different kind")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(KindTransport, "read", cause)
	if errors.Unwrap(err) != cause {
		t.Error("expected Unwrap to expose the wrapped cause")
	}
}

func TestNewHasNoCause(t *testing.T) {
	err := New(KindLoginFailure, "bad credentials")
	if errors.Unwrap(err) != nil {
		t.Error("expected New to produce an error with no wrapped cause")
	}
}

func TestErrorMessageIncludesKindAndMsg(t *testing.T) {
	err := New(KindParseAnomaly, "unrecognised escape")
	want := "ParseAnomaly: unrecognised escape"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
