package errors

import (
	"strings"
	"testing"
)

func TestRecoverConvertsPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "Model.Fit")
		panic("index out of range")
	}

	err := run()
	if err == nil {
		t.Fatal("expected an error from the recovered panic")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("error = %T, want *PanicError", err)
	}
	if pe.Operation != "Model.Fit" {
		t.Errorf("Operation = %q, want Model.Fit", pe.Operation)
	}
	if pe.StackTrace == "" {
		t.Error("StackTrace is empty")
	}
}

func TestRecoverKeepsExistingError(t *testing.T) {
	sentinel := New("already failing")
	run := func() (err error) {
		defer Recover(&err, "Model.Fit")
		err = sentinel
		panic("then panicked")
	}

	err := run()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !Is(err, sentinel) {
		t.Errorf("original error lost: %v", err)
	}
	if !strings.Contains(err.Error(), "then panicked") {
		t.Errorf("panic value lost: %v", err)
	}
}

func TestRecoverNoPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "Model.Fit")
		return nil
	}
	if err := run(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
