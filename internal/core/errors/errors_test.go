package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "file not found")
		if err.Error() != "[NOT_FOUND] file not found" {
			t.Errorf("expected [NOT_FOUND] file not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := Newf(CodeMalformedSource, "expected %q", "(")
		err = AddContext(err, CtxPath, "a.php")
		err = AddContext(err, CtxLine, 7)
		expected := `[MALFORMED_SOURCE] expected "(" (line=7, path=a.php)`
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextThroughWrapping", func(t *testing.T) {
		inner := New(CodeMalformedSource, "bad catch")
		outer := fmt.Errorf("analyze: %w", inner)
		err := AddContext(outer, CtxPath, "x.php")
		if err != outer {
			t.Error("expected AddContext to keep the original chain")
		}
		if !IsCode(err, CodeMalformedSource) {
			t.Error("expected code to survive wrapping")
		}
	})

	t.Run("AddContextForeign", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxPath, "x.php")
		if !IsCode(err, CodeInternal) {
			t.Error("expected foreign errors to become internal errors")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})
}
