package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestWipeError_Error(t *testing.T) {
	err := &WipeError{
		Code:     ErrMalformedRecord,
		ExitCode: 1,
		Message:  "malformed node record",
	}

	expected := "MALFORMED_RECORD: malformed node record"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewUsage(t *testing.T) {
	err := NewUsage("expected exactly one repository argument")

	if err.Code != ErrUsage {
		t.Errorf("Code = %q, want %q", err.Code, ErrUsage)
	}
	if err.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", err.ExitCode)
	}
}

func TestNewInvalidStore(t *testing.T) {
	err := NewInvalidStore("/tmp/repo", "missing table representations")

	if err.Code != ErrInvalidStore {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidStore)
	}
	if err.Details["path"] != "/tmp/repo" {
		t.Errorf("Details[path] = %v, want %q", err.Details["path"], "/tmp/repo")
	}
	want := "'/tmp/repo' is not a valid svn repository: missing table representations"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestNewMalformedRecord(t *testing.T) {
	cause := fmt.Errorf("unknown kind %q", "symlink")
	err := NewMalformedRecord("node", cause)

	if err.Code != ErrMalformedRecord {
		t.Errorf("Code = %q, want %q", err.Code, ErrMalformedRecord)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Details["record"] != "node" {
		t.Errorf("Details[record] = %v, want %q", err.Details["record"], "node")
	}
}

func TestNewMissingRepresentation(t *testing.T) {
	err := NewMissingRepresentation("0.0.1", "a3")

	if err.Code != ErrMissingRepresentation {
		t.Errorf("Code = %q, want %q", err.Code, ErrMissingRepresentation)
	}
	if err.Details["rep_key"] != "a3" {
		t.Errorf("Details[rep_key] = %v, want %q", err.Details["rep_key"], "a3")
	}
}

func TestNewStorageFailure(t *testing.T) {
	err := NewStorageFailure("strings", io.ErrUnexpectedEOF)

	if err.Code != ErrStorageFailure {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageFailure)
	}
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected errors.Is to find io.ErrUnexpectedEOF")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewUsage("x"), ErrUsage, true},
		{"different code", NewUsage("x"), ErrInvalidStore, false},
		{"wrapped", fmt.Errorf("run: %w", NewStorageFailure("nodes", nil)), ErrStorageFailure, true},
		{"plain error", io.EOF, ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
	if got := ExitCode(io.EOF); got != 1 {
		t.Errorf("ExitCode(io.EOF) = %d, want 1", got)
	}
	if got := ExitCode(NewInvalidStore("r", "x")); got != 1 {
		t.Errorf("ExitCode(invalid store) = %d, want 1", got)
	}
}
