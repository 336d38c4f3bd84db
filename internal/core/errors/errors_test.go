package errors

import (
	"errors"
	"os"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeUnreadable, "read failed")
		expected := "[UNREADABLE] read failed: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeParseFailed, "syntax errors")
		if !IsCode(err, CodeParseFailed) {
			t.Error("expected IsCode to return true for CodeParseFailed")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("UnwrapKeepsCause", func(t *testing.T) {
		err := Wrap(os.ErrNotExist, CodeUnreadable, "open failed")
		if !errors.Is(err, os.ErrNotExist) {
			t.Error("expected wrapped os.ErrNotExist to be reachable")
		}
		if CodeOf(err) != CodeUnreadable {
			t.Errorf("expected UNREADABLE, got %q", CodeOf(err))
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeNotSupported, "unsupported"), CtxPath, "a.css")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "a.css" {
			t.Errorf("expected path context, got %v", de.Context)
		}

		foreign := AddContext(errors.New("boom"), CtxOperation, "scan")
		if !IsCode(foreign, CodeInternal) {
			t.Error("expected foreign errors to be wrapped as internal")
		}
	})
}
