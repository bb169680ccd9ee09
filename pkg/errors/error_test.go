package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"labjudge/pkg/errors"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := errors.New(errors.RosterError)
	if err.Code != errors.RosterError {
		t.Fatalf("code = %d", err.Code)
	}
	if !strings.Contains(err.Error(), errors.RosterError.Message()) {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.Wrapf(cause, errors.LogWriteFailed, "write %s", "correction.log")

	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause must be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "correction.log") {
		t.Fatalf("message = %q", err.Error())
	}
	if err.Stack == "" {
		t.Fatal("expected a captured stack")
	}
}

func TestGetCode(t *testing.T) {
	if got := errors.GetCode(errors.New(errors.PackError)); got != errors.PackError {
		t.Fatalf("code = %d", got)
	}
	if got := errors.GetCode(stderrors.New("plain")); got != errors.InternalError {
		t.Fatalf("plain error code = %d", got)
	}
	if got := errors.GetCode(nil); got != errors.Success {
		t.Fatalf("nil code = %d", got)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := errors.Newf(errors.SelectorInvalid, "compile selector %q failed", "(")
	if !errors.Is(err, errors.SelectorInvalid) {
		t.Fatal("expected code match")
	}
	if errors.Is(err, errors.SpecInvalid) {
		t.Fatal("unexpected code match")
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.IntakeFailed).WithDetail("submission", "Maria")
	if err.Details["submission"] != "Maria" {
		t.Fatalf("details = %v", err.Details)
	}
}
